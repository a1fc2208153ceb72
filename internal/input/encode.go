package input

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// tildeCodes are the CSI n ~ numbers for editing and upper function keys.
var tildeCodes = map[Key]int{
	KeyInsert:   2,
	KeyDelete:   3,
	KeyPageUp:   5,
	KeyPageDown: 6,
	KeyF5:       15,
	KeyF6:       17,
	KeyF7:       18,
	KeyF8:       19,
	KeyF9:       20,
	KeyF10:      21,
	KeyF11:      23,
	KeyF12:      24,
}

// cursorFinals are the final bytes for keys sent as CSI/SS3 sequences.
var cursorFinals = map[Key]byte{
	KeyUp:    'A',
	KeyDown:  'B',
	KeyRight: 'C',
	KeyLeft:  'D',
	KeyHome:  'H',
	KeyEnd:   'F',
	KeyF1:    'P',
	KeyF2:    'Q',
	KeyF3:    'R',
	KeyF4:    'S',
}

// EncodeKey translates a key event into the bytes a terminal sends to the
// application. It returns nil for keys with no encoding.
func EncodeKey(ev KeyEvent, m Modes) []byte {
	switch ev.Key {
	case KeyRune:
		return encodeRune(ev.Rune, ev.Mod)
	case KeySpace:
		return encodeRune(' ', ev.Mod)
	case KeyEnter:
		return altPrefix(ev.Mod, []byte{'\r'})
	case KeyTab:
		if ev.Mod.Has(ModShift) {
			return []byte("\x1b[Z")
		}
		return altPrefix(ev.Mod, []byte{'\t'})
	case KeyBackspace:
		if ev.Mod.Has(ModCtrl) {
			return altPrefix(ev.Mod, []byte{0x08})
		}
		return altPrefix(ev.Mod, []byte{0x7f})
	case KeyEscape:
		return altPrefix(ev.Mod, []byte{0x1b})
	}

	mod := ev.Mod
	if n, ok := tildeCodes[ev.Key]; ok {
		seq := "\x1b[" + strconv.Itoa(n)
		if mod != ModNone {
			seq += ";" + strconv.Itoa(mod.xtermParam())
		}
		return []byte(seq + "~")
	}
	if final, ok := cursorFinals[ev.Key]; ok {
		if mod != ModNone {
			return []byte("\x1b[1;" + strconv.Itoa(mod.xtermParam()) + string(final))
		}
		if ev.Key.IsFunctionKey() || (m.AppCursor && ev.Key.IsArrowKey()) {
			return []byte{0x1b, 'O', final}
		}
		return []byte{0x1b, '[', final}
	}
	return nil
}

func encodeRune(r rune, mod Modifier) []byte {
	if mod.Has(ModCtrl) {
		if b, ok := controlByte(r); ok {
			return altPrefix(mod, []byte{b})
		}
	}
	buf := make([]byte, 0, utf8.UTFMax+1)
	return altPrefix(mod, utf8.AppendRune(buf, r))
}

// controlByte maps Ctrl+<rune> to its C0 code.
func controlByte(r rune) (byte, bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return byte(r-'a') + 1, true
	case r >= 'A' && r <= 'Z':
		return byte(r-'A') + 1, true
	case r == ' ' || r == '@' || r == '2':
		return 0, true
	case r == '[' || r == '3':
		return 0x1b, true
	case r == '\\' || r == '4':
		return 0x1c, true
	case r == ']' || r == '5':
		return 0x1d, true
	case r == '^' || r == '6':
		return 0x1e, true
	case r == '_' || r == '/' || r == '7':
		return 0x1f, true
	case r == '?' || r == '8':
		return 0x7f, true
	}
	return 0, false
}

func altPrefix(mod Modifier, b []byte) []byte {
	if mod.Has(ModAlt) {
		return append([]byte{0x1b}, b...)
	}
	return b
}

const (
	pasteStart = "\x1b[200~"
	pasteEnd   = "\x1b[201~"
)

// EncodePaste prepares pasted text. Newlines become carriage returns, and
// the text is bracketed when the application enabled bracketed paste. Any
// embedded end marker is removed so the paste cannot terminate early.
func EncodePaste(text string, m Modes) []byte {
	text = strings.ReplaceAll(text, "\r\n", "\r")
	text = strings.ReplaceAll(text, "\n", "\r")
	if !m.BracketedPaste {
		return []byte(text)
	}
	text = strings.ReplaceAll(text, pasteEnd, "")
	return []byte(pasteStart + text + pasteEnd)
}

// EncodeFocus returns the focus in/out report, or nil when focus events
// are off.
func EncodeFocus(focused bool, m Modes) []byte {
	if !m.FocusEvents {
		return nil
	}
	if focused {
		return []byte("\x1b[I")
	}
	return []byte("\x1b[O")
}
