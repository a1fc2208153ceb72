package theme

import (
	"errors"

	"github.com/pelletier/go-toml/v2"
)

type alacrittyFile struct {
	Colors struct {
		Primary struct {
			Background string `toml:"background"`
			Foreground string `toml:"foreground"`
		} `toml:"primary"`
		Cursor struct {
			Cursor string `toml:"cursor"`
		} `toml:"cursor"`
		Selection struct {
			Background string `toml:"background"`
			Text       string `toml:"text"`
		} `toml:"selection"`
		Normal alacrittyPalette `toml:"normal"`
		Bright alacrittyPalette `toml:"bright"`
	} `toml:"colors"`
}

type alacrittyPalette struct {
	Black   string `toml:"black"`
	Red     string `toml:"red"`
	Green   string `toml:"green"`
	Yellow  string `toml:"yellow"`
	Blue    string `toml:"blue"`
	Magenta string `toml:"magenta"`
	Cyan    string `toml:"cyan"`
	White   string `toml:"white"`
}

func (p alacrittyPalette) list() [8]string {
	return [8]string{p.Black, p.Red, p.Green, p.Yellow, p.Blue, p.Magenta, p.Cyan, p.White}
}

// ParseAlacritty reads an Alacritty TOML color file.
func ParseAlacritty(data []byte) (Scheme, error) {
	var f alacrittyFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return Scheme{}, err
	}
	c := f.Colors
	if c.Primary.Background == "" || c.Primary.Foreground == "" {
		return Scheme{}, errors.New("missing colors.primary background or foreground")
	}

	var set colorSetter
	var bg RGB
	set.set(&bg, c.Primary.Background)
	s := base(bg)
	s.Name = ""
	s.Background = bg
	set.set(&s.Foreground, c.Primary.Foreground)
	set.set(&s.Cursor, c.Cursor.Cursor)
	set.set(&s.SelectionBackground, c.Selection.Background)
	set.set(&s.SelectionForeground, c.Selection.Text)
	for i, hex := range c.Normal.list() {
		set.set(&s.ANSI[i], hex)
	}
	for i, hex := range c.Bright.list() {
		set.set(&s.ANSI[8+i], hex)
	}
	if set.err != nil {
		return Scheme{}, set.err
	}
	derive(&s, c.Cursor.Cursor != "", c.Selection.Background != "", c.Selection.Text != "")
	return s, nil
}
