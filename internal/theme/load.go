package theme

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for theme files with an unknown
// extension.
var ErrUnsupportedFormat = errors.New("unsupported theme format")

// LoadFile reads a theme file, choosing the format by extension. name
// selects a scheme in files that hold several (a Windows Terminal
// settings.json); it may be a glob pattern, and empty picks the first.
func LoadFile(path, name string) (Scheme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scheme{}, fmt.Errorf("reading theme: %w", err)
	}

	var s Scheme
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		s, err = ParseAlacritty(data)
	case ".json":
		s, err = ParseWindowsTerminal(data, name)
	case ".yaml", ".yml":
		s, err = ParseBase16(data)
	case ".itermcolors":
		s, err = ParseITerm(data)
	default:
		return Scheme{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return Scheme{}, fmt.Errorf("theme %s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// colorSetter assigns parsed hex values into a scheme, remembering the
// first failure. Unset entries keep their base value.
type colorSetter struct {
	err error
}

func (c *colorSetter) set(dst *RGB, hex string) {
	if hex == "" || c.err != nil {
		return
	}
	v, err := ParseHex(hex)
	if err != nil {
		c.err = err
		return
	}
	*dst = v
}

// derive fills the cursor and selection colors a format did not provide.
func derive(s *Scheme, hasCursor, hasSelBg, hasSelFg bool) {
	if !hasCursor {
		s.Cursor = s.Foreground
	}
	if !hasSelBg {
		s.SelectionBackground = s.Background.Blend(s.Foreground, 0.3)
	}
	if !hasSelFg {
		s.SelectionForeground = s.Foreground
	}
}

// base returns the scheme that file values are layered onto.
func base(bg RGB) Scheme {
	if bg.IsDark() {
		return Dark()
	}
	return Light()
}
