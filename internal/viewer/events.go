package viewer

import (
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/khafre/internal/input"
	"github.com/dshills/khafre/internal/terminal"
)

// Swapped in tests.
var now = time.Now

func (v *Viewer) handleEvent(ev tcell.Event) {
	switch e := ev.(type) {
	case *tcell.EventKey:
		v.handleKey(e)
	case *tcell.EventMouse:
		v.handleMouse(e)
	case *tcell.EventResize:
		w, h := e.Size()
		if err := v.sess.Resize(max(w, 1), max(h, 1)); err != nil {
			v.log.Debug("resize rejected", "cols", w, "rows", h, "error", err)
		}
		v.screen.Sync()
	case *tcell.EventPaste:
		if e.Start() {
			v.pasting = true
			v.paste = v.paste[:0]
			return
		}
		v.pasting = false
		v.report(v.sess.Paste(string(v.paste)))
		v.paste = v.paste[:0]
	case *tcell.EventFocus:
		v.report(v.sess.Focus(e.Focused))
	}
}

func (v *Viewer) handleKey(e *tcell.EventKey) {
	if v.pasting {
		switch e.Key() {
		case tcell.KeyRune:
			v.paste = append(v.paste, e.Rune())
		case tcell.KeyEnter:
			v.paste = append(v.paste, '\n')
		case tcell.KeyTab:
			v.paste = append(v.paste, '\t')
		}
		return
	}

	if e.Modifiers()&tcell.ModShift != 0 {
		switch e.Key() {
		case tcell.KeyPgUp:
			v.Scroll(v.pageSize())
			return
		case tcell.KeyPgDn:
			v.Scroll(-v.pageSize())
			return
		}
	}

	ke, ok := convertKey(e)
	if !ok {
		return
	}
	v.sess.ClearSelection()
	v.report(v.sess.SendKey(ke))
}

// Scroll moves the viewport into history by delta rows.
func (v *Viewer) Scroll(delta int) {
	v.sess.Scroll(delta)
}

func (v *Viewer) pageSize() int {
	_, h := v.screen.Size()
	return max(h-1, 1)
}

func (v *Viewer) report(err error) {
	if err != nil {
		v.log.Debug("input not delivered", "error", err)
	}
}

// mouseTracking reports whether the application wants mouse events.
func (v *Viewer) mouseTracking() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.last != nil && v.last.Modes.Mouse != input.MouseNone
}

func (v *Viewer) handleMouse(e *tcell.EventMouse) {
	col, row := e.Position()
	btns := e.Buttons()
	mod := convertMod(e.Modifiers())
	prev := v.buttons
	v.buttons = btns &^ (tcell.WheelUp | tcell.WheelDown | tcell.WheelLeft | tcell.WheelRight)

	switch {
	case btns&tcell.WheelUp != 0:
		v.report(v.sess.SendMouse(input.MouseEvent{Button: input.MouseWheelUp, Row: row, Col: col, Mod: mod}))
		return
	case btns&tcell.WheelDown != 0:
		v.report(v.sess.SendMouse(input.MouseEvent{Button: input.MouseWheelDown, Row: row, Col: col, Mod: mod}))
		return
	}

	if v.mouseTracking() && !mod.Has(input.ModShift) && !v.selecting {
		v.forwardMouse(prev, v.buttons, row, col, mod)
		return
	}
	v.localMouse(prev, v.buttons, row, col, mod)
}

// forwardMouse turns tcell's button state into press, release and motion
// reports.
func (v *Viewer) forwardMouse(prev, cur tcell.ButtonMask, row, col int, mod input.Modifier) {
	send := func(b input.MouseButton, a input.MouseAction) {
		v.report(v.sess.SendMouse(input.MouseEvent{Button: b, Action: a, Row: row, Col: col, Mod: mod}))
	}
	pressed := cur &^ prev
	released := prev &^ cur
	for _, b := range []struct {
		mask tcell.ButtonMask
		btn  input.MouseButton
	}{
		{tcell.Button1, input.MouseLeft},
		{tcell.Button3, input.MouseMiddle},
		{tcell.Button2, input.MouseRight},
	} {
		if released&b.mask != 0 {
			send(b.btn, input.MouseRelease)
		}
		if pressed&b.mask != 0 {
			send(b.btn, input.MousePress)
		}
	}
	if pressed == 0 && released == 0 {
		btn := input.MouseNoButton
		switch {
		case cur&tcell.Button1 != 0:
			btn = input.MouseLeft
		case cur&tcell.Button3 != 0:
			btn = input.MouseMiddle
		case cur&tcell.Button2 != 0:
			btn = input.MouseRight
		}
		send(btn, input.MouseMotion)
	}
}

// localMouse selects text with the left button.
func (v *Viewer) localMouse(prev, cur tcell.ButtonMask, row, col int, mod input.Modifier) {
	down := cur&tcell.Button1 != 0
	wasDown := prev&tcell.Button1 != 0

	switch {
	case down && !wasDown:
		mode := terminal.SelectNormal
		switch {
		case mod.Has(input.ModAlt):
			mode = terminal.SelectBlock
		case v.clicks.record(row, col, now()) >= 2:
			mode = terminal.SelectLine
		}
		v.selecting = true
		v.sess.StartSelection(mode, row, col)
		if mode == terminal.SelectLine {
			v.sess.UpdateSelection(row, col)
		}
	case down && v.selecting:
		v.sess.UpdateSelection(row, col)
	case !down && wasDown && v.selecting:
		v.selecting = false
		if text := v.sess.SelectionText(); text != "" {
			v.setClipboard(text)
		}
	}
}

func convertMod(m tcell.ModMask) input.Modifier {
	var mod input.Modifier
	if m&tcell.ModShift != 0 {
		mod |= input.ModShift
	}
	if m&tcell.ModCtrl != 0 {
		mod |= input.ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		mod |= input.ModAlt
	}
	if m&tcell.ModMeta != 0 {
		mod |= input.ModMeta
	}
	return mod
}

var namedKeys = map[tcell.Key]input.Key{
	tcell.KeyEnter:      input.KeyEnter,
	tcell.KeyTab:        input.KeyTab,
	tcell.KeyBackspace2: input.KeyBackspace,
	tcell.KeyEscape:     input.KeyEscape,
	tcell.KeyUp:         input.KeyUp,
	tcell.KeyDown:       input.KeyDown,
	tcell.KeyLeft:       input.KeyLeft,
	tcell.KeyRight:      input.KeyRight,
	tcell.KeyHome:       input.KeyHome,
	tcell.KeyEnd:        input.KeyEnd,
	tcell.KeyPgUp:       input.KeyPageUp,
	tcell.KeyPgDn:       input.KeyPageDown,
	tcell.KeyInsert:     input.KeyInsert,
	tcell.KeyDelete:     input.KeyDelete,
	tcell.KeyF1:         input.KeyF1,
	tcell.KeyF2:         input.KeyF2,
	tcell.KeyF3:         input.KeyF3,
	tcell.KeyF4:         input.KeyF4,
	tcell.KeyF5:         input.KeyF5,
	tcell.KeyF6:         input.KeyF6,
	tcell.KeyF7:         input.KeyF7,
	tcell.KeyF8:         input.KeyF8,
	tcell.KeyF9:         input.KeyF9,
	tcell.KeyF10:        input.KeyF10,
	tcell.KeyF11:        input.KeyF11,
	tcell.KeyF12:        input.KeyF12,
}

// ctrlPunct are the control keys above Ctrl+Z and the rune that produces
// each with Ctrl held.
var ctrlPunct = map[tcell.Key]rune{
	tcell.KeyCtrlBackslash:  '\\',
	tcell.KeyCtrlRightSq:    ']',
	tcell.KeyCtrlCarat:      '^',
	tcell.KeyCtrlUnderscore: '_',
}

// convertKey maps a tcell key event onto an input key event.
func convertKey(e *tcell.EventKey) (input.KeyEvent, bool) {
	mod := convertMod(e.Modifiers())
	k := e.Key()
	switch {
	case k == tcell.KeyRune:
		return input.NewRuneEvent(e.Rune(), mod), true
	case k == tcell.KeyBacktab:
		return input.KeyEvent{Key: input.KeyTab, Mod: mod | input.ModShift}, true
	case k == tcell.KeyCtrlSpace:
		return input.NewRuneEvent(' ', mod|input.ModCtrl), true
	}
	if ik, ok := namedKeys[k]; ok {
		// tcell reports Enter and Tab as their control codes with Ctrl set.
		if k == tcell.KeyEnter || k == tcell.KeyTab {
			mod &^= input.ModCtrl
		}
		return input.KeyEvent{Key: ik, Mod: mod}, true
	}
	if k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ {
		return input.NewRuneEvent(rune('a'+(k-tcell.KeyCtrlA)), mod|input.ModCtrl), true
	}
	if r, ok := ctrlPunct[k]; ok {
		return input.NewRuneEvent(r, mod|input.ModCtrl), true
	}
	return input.KeyEvent{}, false
}
