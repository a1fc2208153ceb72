package input

import "fmt"

// MouseButton identifies the button in a mouse event.
type MouseButton uint8

const (
	MouseLeft MouseButton = iota
	MouseMiddle
	MouseRight
	MouseNoButton
	MouseWheelUp
	MouseWheelDown
)

// MouseAction is what happened to the button.
type MouseAction uint8

const (
	MousePress MouseAction = iota
	MouseRelease
	MouseMotion
)

// MouseEvent is a mouse event in zero-based cell coordinates.
type MouseEvent struct {
	Button MouseButton
	Action MouseAction
	Row    int
	Col    int
	Mod    Modifier
}

// x10Limit is the largest coordinate the legacy encoding can carry.
const x10Limit = 223

// EncodeMouse encodes ev for the reporting mode in m. It returns nil when
// the application has not asked for this kind of event.
func EncodeMouse(ev MouseEvent, m Modes) []byte {
	if !wantsMouse(ev, m.Mouse) {
		return nil
	}

	var code int
	switch ev.Button {
	case MouseLeft:
		code = 0
	case MouseMiddle:
		code = 1
	case MouseRight:
		code = 2
	case MouseNoButton:
		code = 3
	case MouseWheelUp:
		code = 64
	case MouseWheelDown:
		code = 65
	}
	if ev.Action == MouseMotion {
		code += 32
	}
	if m.Mouse != MouseX10 {
		if ev.Mod.Has(ModShift) {
			code += 4
		}
		if ev.Mod.Has(ModAlt) || ev.Mod.Has(ModMeta) {
			code += 8
		}
		if ev.Mod.Has(ModCtrl) {
			code += 16
		}
	}

	if m.MouseSGR {
		final := 'M'
		if ev.Action == MouseRelease {
			final = 'm'
		}
		return []byte(fmt.Sprintf("\x1b[<%d;%d;%d%c", code, ev.Col+1, ev.Row+1, final))
	}

	if ev.Action == MouseRelease {
		// The legacy encoding cannot say which button was released.
		code = code&^3 | 3
	}
	if ev.Col+1 > x10Limit || ev.Row+1 > x10Limit {
		return nil
	}
	return []byte{0x1b, '[', 'M', byte(32 + code), byte(32 + ev.Col + 1), byte(32 + ev.Row + 1)}
}

func wantsMouse(ev MouseEvent, mode MouseMode) bool {
	switch mode {
	case MouseX10:
		return ev.Action == MousePress
	case MouseNormal:
		return ev.Action != MouseMotion
	case MouseDrag:
		return ev.Action != MouseMotion || ev.Button != MouseNoButton
	case MouseAny:
		return true
	default:
		return false
	}
}
