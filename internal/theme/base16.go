package theme

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// base16 slot for each ANSI index, following base16-shell.
var base16ANSI = [16]string{
	"base00", "base08", "base0B", "base0A", "base0D", "base0E", "base0C", "base05",
	"base03", "base08", "base0B", "base0A", "base0D", "base0E", "base0C", "base07",
}

type base16File struct {
	Scheme  string            `yaml:"scheme"`
	Name    string            `yaml:"name"`
	Palette map[string]string `yaml:"palette"`
	Colors  map[string]string `yaml:",inline"`
}

// ParseBase16 reads a base16 scheme, either the classic flat layout
// (base00: "1d1f21") or the tinted-theming layout with a palette map.
func ParseBase16(data []byte) (Scheme, error) {
	var f base16File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Scheme{}, err
	}
	colors := f.Palette
	if len(colors) == 0 {
		colors = f.Colors
	}
	for i := 0; i < 16; i++ {
		key := fmt.Sprintf("base0%X", i)
		if colors[key] == "" {
			return Scheme{}, fmt.Errorf("missing %s", key)
		}
	}

	var set colorSetter
	var s Scheme
	s.Name = f.Name
	if s.Name == "" {
		s.Name = f.Scheme
	}
	set.set(&s.Background, colors["base00"])
	set.set(&s.Foreground, colors["base05"])
	set.set(&s.Cursor, colors["base05"])
	set.set(&s.SelectionBackground, colors["base02"])
	set.set(&s.SelectionForeground, colors["base05"])
	for i, key := range base16ANSI {
		set.set(&s.ANSI[i], colors[key])
	}
	if set.err != nil {
		return Scheme{}, set.err
	}
	return s, nil
}
