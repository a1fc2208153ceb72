package input

import "strings"

// Modifier represents keyboard modifier keys.
type Modifier uint8

const (
	// ModNone indicates no modifiers.
	ModNone Modifier = 0

	// ModShift indicates the Shift key.
	ModShift Modifier = 1 << iota

	// ModCtrl indicates the Control key.
	ModCtrl

	// ModAlt indicates the Alt key (Option on macOS).
	ModAlt

	// ModMeta indicates the Meta key (Cmd on macOS, Win on Windows).
	ModMeta
)

// Has returns true if m contains the specified modifier.
func (m Modifier) Has(mod Modifier) bool {
	return m&mod != 0
}

// String returns a human-readable representation like "Ctrl+Alt".
func (m Modifier) String() string {
	if m == ModNone {
		return ""
	}
	var parts []string
	if m.Has(ModCtrl) {
		parts = append(parts, "Ctrl")
	}
	if m.Has(ModAlt) {
		parts = append(parts, "Alt")
	}
	if m.Has(ModShift) {
		parts = append(parts, "Shift")
	}
	if m.Has(ModMeta) {
		parts = append(parts, "Meta")
	}
	return strings.Join(parts, "+")
}

// ParseModifiers parses names like "ctrl", "alt+shift" or a list of names.
func ParseModifiers(names ...string) Modifier {
	var m Modifier
	for _, name := range names {
		for _, part := range strings.Split(strings.ToLower(name), "+") {
			switch strings.TrimSpace(part) {
			case "ctrl", "control":
				m |= ModCtrl
			case "alt", "option", "opt":
				m |= ModAlt
			case "shift":
				m |= ModShift
			case "meta", "cmd", "super":
				m |= ModMeta
			}
		}
	}
	return m
}

// xtermParam returns the modifier parameter used in CSI key sequences
// (1 + shift + 2*alt + 4*ctrl + 8*meta), or 1 when no modifier is held.
func (m Modifier) xtermParam() int {
	p := 1
	if m.Has(ModShift) {
		p += 1
	}
	if m.Has(ModAlt) {
		p += 2
	}
	if m.Has(ModCtrl) {
		p += 4
	}
	if m.Has(ModMeta) {
		p += 8
	}
	return p
}
