package theme

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/match"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// Windows Terminal names for the ANSI colors, in index order.
var wtColorNames = [16]string{
	"black", "red", "green", "yellow", "blue", "purple", "cyan", "white",
	"brightBlack", "brightRed", "brightGreen", "brightYellow",
	"brightBlue", "brightPurple", "brightCyan", "brightWhite",
}

// ParseWindowsTerminal reads a Windows Terminal color scheme. data is
// either one scheme object or a settings file with a "schemes" array, in
// which case name (a glob, empty for the first) picks the scheme.
func ParseWindowsTerminal(data []byte, name string) (Scheme, error) {
	if !gjson.ValidBytes(data) {
		return Scheme{}, errors.New("invalid JSON")
	}
	root := gjson.ParseBytes(data)

	obj := root
	if schemes := root.Get("schemes"); schemes.IsArray() {
		obj = gjson.Result{}
		schemes.ForEach(func(_, v gjson.Result) bool {
			if name == "" || match.Match(v.Get("name").String(), name) {
				obj = v
				return false
			}
			return true
		})
		if !obj.Exists() {
			return Scheme{}, fmt.Errorf("no scheme matching %q", name)
		}
	}

	bgHex, fgHex := obj.Get("background").String(), obj.Get("foreground").String()
	if bgHex == "" || fgHex == "" {
		return Scheme{}, errors.New("missing background or foreground")
	}

	var set colorSetter
	var bg RGB
	set.set(&bg, bgHex)
	s := base(bg)
	s.Name = obj.Get("name").String()
	s.Background = bg
	set.set(&s.Foreground, fgHex)
	cursor := obj.Get("cursorColor").String()
	selBg := obj.Get("selectionBackground").String()
	set.set(&s.Cursor, cursor)
	set.set(&s.SelectionBackground, selBg)
	for i, key := range wtColorNames {
		set.set(&s.ANSI[i], obj.Get(key).String())
	}
	if set.err != nil {
		return Scheme{}, set.err
	}
	derive(&s, cursor != "", selBg != "", false)
	return s, nil
}

// ExportWindowsTerminal encodes s as an indented Windows Terminal scheme.
func ExportWindowsTerminal(s Scheme) ([]byte, error) {
	out := []byte(`{}`)
	var err error
	set := func(path string, v any) {
		if err != nil {
			return
		}
		out, err = sjson.SetBytes(out, path, v)
	}

	set("name", s.Name)
	set("background", s.Background.Hex())
	set("foreground", s.Foreground.Hex())
	set("cursorColor", s.Cursor.Hex())
	set("selectionBackground", s.SelectionBackground.Hex())
	for i, key := range wtColorNames {
		set(key, s.ANSI[i].Hex())
	}
	if err != nil {
		return nil, err
	}
	return pretty.PrettyOptions(out, &pretty.Options{Width: 80, Indent: "    "}), nil
}
