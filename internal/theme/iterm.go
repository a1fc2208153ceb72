package theme

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// plistNode is any plist element; children keep document order so a dict's
// key/value pairs can be walked in sequence.
type plistNode struct {
	XMLName xml.Name
	Text    string      `xml:",chardata"`
	Nodes   []plistNode `xml:",any"`
}

type plistDoc struct {
	XMLName xml.Name  `xml:"plist"`
	Dict    plistNode `xml:"dict"`
}

// pairs walks a dict's key/value pairs.
func (n plistNode) pairs(fn func(key string, v plistNode)) {
	for i := 0; i+1 < len(n.Nodes); i += 2 {
		if n.Nodes[i].XMLName.Local != "key" {
			continue
		}
		fn(strings.TrimSpace(n.Nodes[i].Text), n.Nodes[i+1])
	}
}

// itermColor converts a color dict with "Red/Green/Blue Component" reals.
func itermColor(n plistNode) (RGB, error) {
	var c colorful.Color
	var err error
	n.pairs(func(key string, v plistNode) {
		if err != nil || v.XMLName.Local != "real" {
			return
		}
		f, perr := strconv.ParseFloat(strings.TrimSpace(v.Text), 64)
		if perr != nil {
			err = fmt.Errorf("%s: %w", key, perr)
			return
		}
		switch key {
		case "Red Component":
			c.R = f
		case "Green Component":
			c.G = f
		case "Blue Component":
			c.B = f
		}
	})
	if err != nil {
		return RGB{}, err
	}
	return FromColorful(c), nil
}

// ParseITerm reads an iTerm2 .itermcolors property list.
func ParseITerm(data []byte) (Scheme, error) {
	var doc plistDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return Scheme{}, err
	}

	colors := make(map[string]RGB)
	var err error
	doc.Dict.pairs(func(key string, v plistNode) {
		if err != nil || v.XMLName.Local != "dict" {
			return
		}
		c, cerr := itermColor(v)
		if cerr != nil {
			err = fmt.Errorf("%s: %w", key, cerr)
			return
		}
		colors[key] = c
	})
	if err != nil {
		return Scheme{}, err
	}

	bg, okBg := colors["Background Color"]
	fg, okFg := colors["Foreground Color"]
	if !okBg || !okFg {
		return Scheme{}, errors.New("missing Background Color or Foreground Color")
	}
	s := base(bg)
	s.Name = ""
	s.Background, s.Foreground = bg, fg
	for i := range s.ANSI {
		if c, ok := colors[fmt.Sprintf("Ansi %d Color", i)]; ok {
			s.ANSI[i] = c
		}
	}
	cursor, hasCursor := colors["Cursor Color"]
	selBg, hasSelBg := colors["Selection Color"]
	selFg, hasSelFg := colors["Selected Text Color"]
	derive(&s, hasCursor, hasSelBg, hasSelFg)
	if hasCursor {
		s.Cursor = cursor
	}
	if hasSelBg {
		s.SelectionBackground = selBg
	}
	if hasSelFg {
		s.SelectionForeground = selFg
	}
	return s, nil
}
