package input

import (
	"testing"
)

func TestEncodeKey(t *testing.T) {
	tests := []struct {
		name string
		ev   KeyEvent
		want string
	}{
		{"letter", NewRuneEvent('a', ModNone), "a"},
		{"unicode", NewRuneEvent('é', ModNone), "é"},
		{"enter", KeyEvent{Key: KeyEnter}, "\r"},
		{"backspace", KeyEvent{Key: KeyBackspace}, "\x7f"},
		{"tab", KeyEvent{Key: KeyTab}, "\t"},
		{"shift tab", KeyEvent{Key: KeyTab, Mod: ModShift}, "\x1b[Z"},
		{"escape", KeyEvent{Key: KeyEscape}, "\x1b"},
		{"up", KeyEvent{Key: KeyUp}, "\x1b[A"},
		{"down", KeyEvent{Key: KeyDown}, "\x1b[B"},
		{"right", KeyEvent{Key: KeyRight}, "\x1b[C"},
		{"left", KeyEvent{Key: KeyLeft}, "\x1b[D"},
		{"home", KeyEvent{Key: KeyHome}, "\x1b[H"},
		{"end", KeyEvent{Key: KeyEnd}, "\x1b[F"},
		{"page up", KeyEvent{Key: KeyPageUp}, "\x1b[5~"},
		{"page down", KeyEvent{Key: KeyPageDown}, "\x1b[6~"},
		{"insert", KeyEvent{Key: KeyInsert}, "\x1b[2~"},
		{"delete", KeyEvent{Key: KeyDelete}, "\x1b[3~"},
		{"f1", KeyEvent{Key: KeyF1}, "\x1bOP"},
		{"f4", KeyEvent{Key: KeyF4}, "\x1bOS"},
		{"f5", KeyEvent{Key: KeyF5}, "\x1b[15~"},
		{"f6", KeyEvent{Key: KeyF6}, "\x1b[17~"},
		{"f10", KeyEvent{Key: KeyF10}, "\x1b[21~"},
		{"f11", KeyEvent{Key: KeyF11}, "\x1b[23~"},
		{"f12", KeyEvent{Key: KeyF12}, "\x1b[24~"},
		{"ctrl c", NewRuneEvent('c', ModCtrl), "\x03"},
		{"ctrl A", NewRuneEvent('A', ModCtrl), "\x01"},
		{"ctrl space", KeyEvent{Key: KeySpace, Mod: ModCtrl}, "\x00"},
		{"alt x", NewRuneEvent('x', ModAlt), "\x1bx"},
		{"ctrl up", KeyEvent{Key: KeyUp, Mod: ModCtrl}, "\x1b[1;5A"},
		{"shift delete", KeyEvent{Key: KeyDelete, Mod: ModShift}, "\x1b[3;2~"},
		{"none", KeyEvent{Key: KeyNone}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(EncodeKey(tt.ev, Modes{}))
			if got != tt.want {
				t.Errorf("EncodeKey(%v) = %q, want %q", tt.ev, got, tt.want)
			}
		})
	}
}

func TestEncodeKeyAppCursor(t *testing.T) {
	m := Modes{AppCursor: true}
	if got := string(EncodeKey(KeyEvent{Key: KeyUp}, m)); got != "\x1bOA" {
		t.Errorf("app cursor up = %q, want %q", got, "\x1bOA")
	}
	// Modified arrows keep the CSI form.
	if got := string(EncodeKey(KeyEvent{Key: KeyUp, Mod: ModAlt}, m)); got != "\x1b[1;3A" {
		t.Errorf("app cursor alt+up = %q, want %q", got, "\x1b[1;3A")
	}
}

func TestEncodeMouse(t *testing.T) {
	press := MouseEvent{Button: MouseLeft, Action: MousePress, Row: 4, Col: 9}
	release := MouseEvent{Button: MouseLeft, Action: MouseRelease, Row: 4, Col: 9}
	motion := MouseEvent{Button: MouseNoButton, Action: MouseMotion, Row: 0, Col: 0}

	tests := []struct {
		name  string
		ev    MouseEvent
		modes Modes
		want  string
	}{
		{"off", press, Modes{}, ""},
		{"x10 press", press, Modes{Mouse: MouseX10}, "\x1b[M *%"},
		{"x10 ignores release", release, Modes{Mouse: MouseX10}, ""},
		{"normal release", release, Modes{Mouse: MouseNormal}, "\x1b[M#*%"},
		{"normal ignores motion", motion, Modes{Mouse: MouseNormal}, ""},
		{"any motion", motion, Modes{Mouse: MouseAny}, "\x1b[MC!!"},
		{"sgr press", press, Modes{Mouse: MouseNormal, MouseSGR: true}, "\x1b[<0;10;5M"},
		{"sgr release", release, Modes{Mouse: MouseNormal, MouseSGR: true}, "\x1b[<0;10;5m"},
		{"sgr wheel", MouseEvent{Button: MouseWheelUp, Row: 0, Col: 0}, Modes{Mouse: MouseNormal, MouseSGR: true}, "\x1b[<64;1;1M"},
		{"sgr ctrl", MouseEvent{Button: MouseRight, Mod: ModCtrl}, Modes{Mouse: MouseNormal, MouseSGR: true}, "\x1b[<18;1;1M"},
		{"x10 out of range", MouseEvent{Button: MouseLeft, Col: 400}, Modes{Mouse: MouseNormal}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(EncodeMouse(tt.ev, tt.modes))
			if got != tt.want {
				t.Errorf("EncodeMouse() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncodePaste(t *testing.T) {
	if got := string(EncodePaste("a\nb", Modes{})); got != "a\rb" {
		t.Errorf("plain paste = %q, want %q", got, "a\rb")
	}

	got := string(EncodePaste("x\x1b[201~y", Modes{BracketedPaste: true}))
	want := "\x1b[200~xy\x1b[201~"
	if got != want {
		t.Errorf("bracketed paste = %q, want %q", got, want)
	}
}

func TestEncodeFocus(t *testing.T) {
	if got := EncodeFocus(true, Modes{}); got != nil {
		t.Errorf("focus without mode = %q, want nil", got)
	}
	if got := string(EncodeFocus(false, Modes{FocusEvents: true})); got != "\x1b[O" {
		t.Errorf("focus out = %q, want %q", got, "\x1b[O")
	}
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		name string
		want Key
	}{
		{"Enter", KeyEnter},
		{"enter", KeyEnter},
		{"esc", KeyEscape},
		{"PageDown", KeyPageDown},
		{"F5", KeyF5},
		{"f12", KeyF12},
		{"ArrowLeft", KeyLeft},
		{"bogus", KeyNone},
	}
	for _, tt := range tests {
		if got := ParseKey(tt.name); got != tt.want {
			t.Errorf("ParseKey(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestParseModifiers(t *testing.T) {
	m := ParseModifiers("ctrl+shift", "alt")
	if !m.Has(ModCtrl) || !m.Has(ModShift) || !m.Has(ModAlt) || m.Has(ModMeta) {
		t.Errorf("ParseModifiers = %v", m)
	}
	if got := m.String(); got != "Ctrl+Alt+Shift" {
		t.Errorf("String() = %q, want %q", got, "Ctrl+Alt+Shift")
	}
}
