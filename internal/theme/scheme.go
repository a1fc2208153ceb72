package theme

import (
	"fmt"
	"strings"

	"github.com/dshills/khafre/internal/terminal"
)

// Scheme is a terminal color scheme.
type Scheme struct {
	Name string

	Background          RGB
	Foreground          RGB
	Cursor              RGB
	SelectionBackground RGB
	SelectionForeground RGB

	// ANSI holds black, red, green, yellow, blue, magenta, cyan and white,
	// followed by their bright variants.
	ANSI [16]RGB
}

// Dark returns the built-in dark scheme.
func Dark() Scheme {
	return Scheme{
		Name:                "dark",
		Background:          RGB{30, 30, 30},
		Foreground:          RGB{212, 212, 212},
		Cursor:              RGB{212, 212, 212},
		SelectionBackground: RGB{38, 79, 120},
		SelectionForeground: RGB{212, 212, 212},
		ANSI: [16]RGB{
			{0, 0, 0}, {205, 49, 49}, {13, 188, 121}, {229, 229, 16},
			{36, 114, 200}, {188, 63, 188}, {17, 168, 205}, {229, 229, 229},
			{102, 102, 102}, {241, 76, 76}, {35, 209, 139}, {245, 245, 67},
			{59, 142, 234}, {214, 112, 214}, {41, 184, 219}, {255, 255, 255},
		},
	}
}

// Light returns the built-in light scheme.
func Light() Scheme {
	return Scheme{
		Name:                "light",
		Background:          RGB{255, 255, 255},
		Foreground:          RGB{0, 0, 0},
		Cursor:              RGB{0, 0, 0},
		SelectionBackground: RGB{173, 214, 255},
		SelectionForeground: RGB{0, 0, 0},
		ANSI: [16]RGB{
			{0, 0, 0}, {205, 49, 49}, {0, 135, 0}, {128, 128, 0},
			{0, 0, 128}, {128, 0, 128}, {0, 135, 135}, {128, 128, 128},
			{102, 102, 102}, {241, 76, 76}, {0, 175, 0}, {175, 135, 0},
			{36, 114, 200}, {175, 0, 175}, {0, 175, 175}, {255, 255, 255},
		},
	}
}

// Resolve returns the RGB value of c. fg selects which default applies to
// default colors.
func (s Scheme) Resolve(c terminal.Color, fg bool) RGB {
	switch {
	case c.Default:
		if fg {
			return s.Foreground
		}
		return s.Background
	case c.IsRGB():
		return RGB{c.R, c.G, c.B}
	case c.Index < 16:
		return s.ANSI[c.Index]
	default:
		x := terminal.ColorFromIndex(c.Index)
		return RGB{x.R, x.G, x.B}
	}
}

// CellColors returns the colors a cell is drawn with, applying inverse,
// dim and hidden attributes and the selection highlight.
func (s Scheme) CellColors(c terminal.Cell, selected bool) (fg, bg RGB) {
	if selected {
		return s.SelectionForeground, s.SelectionBackground
	}
	fg = s.Resolve(c.Foreground, true)
	bg = s.Resolve(c.Background, false)
	if c.Attributes.Has(terminal.AttrInverse) {
		fg, bg = bg, fg
	}
	if c.Attributes.Has(terminal.AttrDim) {
		fg = fg.Blend(bg, 0.5)
	}
	if c.Attributes.Has(terminal.AttrHidden) {
		fg = bg
	}
	return fg, bg
}

// Preference selects how the scheme is chosen.
type Preference string

const (
	PreferSystem Preference = "system"
	PreferDark   Preference = "dark"
	PreferLight  Preference = "light"
)

// ParsePreference parses "system", "dark" or "light". Empty is system.
func ParsePreference(s string) (Preference, error) {
	switch p := Preference(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PreferSystem, nil
	case PreferSystem, PreferDark, PreferLight:
		return p, nil
	default:
		return "", fmt.Errorf("unknown theme preference %q", s)
	}
}

// ForMode returns Dark() or Light().
func ForMode(isDark bool) Scheme {
	if isDark {
		return Dark()
	}
	return Light()
}
