package theme

import (
	"fmt"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// RGB is a 24-bit color.
type RGB struct {
	R, G, B uint8
}

// ParseHex parses "#RGB", "#RRGGBB", "RRGGBB" or Alacritty's "0xRRGGBB".
func ParseHex(s string) (RGB, error) {
	h := strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(h, "0x"), strings.HasPrefix(h, "0X"):
		h = "#" + h[2:]
	case !strings.HasPrefix(h, "#"):
		h = "#" + h
	}
	if len(h) != 4 && len(h) != 7 {
		return RGB{}, fmt.Errorf("invalid hex color %q", s)
	}
	c, err := colorful.Hex(h)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return FromColorful(c), nil
}

// MustHex is ParseHex for constants.
func MustHex(s string) RGB {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// FromColorful converts a go-colorful color, clamping out-of-gamut values.
func FromColorful(c colorful.Color) RGB {
	r, g, b := c.Clamped().RGB255()
	return RGB{R: r, G: g, B: b}
}

// Colorful returns the color for use with go-colorful.
func (c RGB) Colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

// Hex returns "#rrggbb".
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// CSS returns "rgb(r,g,b)".
func (c RGB) CSS() string {
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}

// String implements fmt.Stringer.
func (c RGB) String() string { return c.Hex() }

// Blend mixes c toward other in RGB space. Amount 0 is c, 1 is other.
func (c RGB) Blend(other RGB, amount float64) RGB {
	return FromColorful(c.Colorful().BlendRgb(other.Colorful(), amount))
}

// IsDark reports whether the color is closer to black than white.
func (c RGB) IsDark() bool {
	l, _, _ := c.Colorful().Lab()
	return l < 0.5
}
