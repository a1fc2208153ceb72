package input

import (
	"fmt"
	"strings"
)

// Key represents a keyboard key.
// For character keys, use KeyRune and set the Rune field in KeyEvent.
type Key uint16

const (
	// KeyNone represents no key.
	KeyNone Key = iota

	// Special keys
	KeyEscape
	KeyEnter
	KeyTab
	KeyBackspace
	KeyDelete
	KeyInsert
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown

	// Arrow keys
	KeyUp
	KeyDown
	KeyLeft
	KeyRight

	// Function keys
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12

	KeySpace

	// KeyRune is used for character keys (letters, numbers, punctuation).
	// The actual character is stored in KeyEvent.Rune.
	KeyRune
)

var keyNames = map[Key]string{
	KeyNone:      "None",
	KeyEscape:    "Escape",
	KeyEnter:     "Enter",
	KeyTab:       "Tab",
	KeyBackspace: "Backspace",
	KeyDelete:    "Delete",
	KeyInsert:    "Insert",
	KeyHome:      "Home",
	KeyEnd:       "End",
	KeyPageUp:    "PageUp",
	KeyPageDown:  "PageDown",
	KeyUp:        "Up",
	KeyDown:      "Down",
	KeyLeft:      "Left",
	KeyRight:     "Right",
	KeySpace:     "Space",
	KeyRune:      "Rune",
}

// String returns a human-readable name for the key.
func (k Key) String() string {
	if k.IsFunctionKey() {
		return fmt.Sprintf("F%d", int(k-KeyF1)+1)
	}
	if name, ok := keyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Key(%d)", k)
}

// IsFunctionKey returns true if this is a function key (F1-F12).
func (k Key) IsFunctionKey() bool {
	return k >= KeyF1 && k <= KeyF12
}

// IsArrowKey returns true if this is an arrow key.
func (k Key) IsArrowKey() bool {
	return k >= KeyUp && k <= KeyRight
}

// ParseKey returns the key for a name such as "Enter", "PageUp" or "F5",
// matched case-insensitively. Unknown names yield KeyNone.
func ParseKey(name string) Key {
	lower := strings.ToLower(name)
	switch lower {
	case "esc":
		return KeyEscape
	case "return":
		return KeyEnter
	case "del":
		return KeyDelete
	case "pgup":
		return KeyPageUp
	case "pgdn", "pgdown":
		return KeyPageDown
	case "arrowup":
		return KeyUp
	case "arrowdown":
		return KeyDown
	case "arrowleft":
		return KeyLeft
	case "arrowright":
		return KeyRight
	}
	for k := KeyEscape; k <= KeySpace; k++ {
		if strings.ToLower(k.String()) == lower {
			return k
		}
	}
	return KeyNone
}

// KeyEvent is a decoded key press.
type KeyEvent struct {
	Key  Key
	Rune rune
	Mod  Modifier
}

// NewRuneEvent returns the event for typing r with modifiers.
func NewRuneEvent(r rune, mod Modifier) KeyEvent {
	return KeyEvent{Key: KeyRune, Rune: r, Mod: mod}
}

// String returns a representation like "Ctrl+c" or "Alt+Left".
func (e KeyEvent) String() string {
	name := e.Key.String()
	if e.Key == KeyRune {
		name = string(e.Rune)
	}
	if e.Mod == ModNone {
		return name
	}
	return e.Mod.String() + "+" + name
}
