package terminal

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dshills/khafre/internal/input"
)

// Interpreter applies parsed actions to a Grid. It implements io.Writer so a
// byte stream can be copied straight into it.
type Interpreter struct {
	grid    *Grid
	parser  *Parser
	emit    func(*Action)
	respond func([]byte)
	events  []Event
}

// NewInterpreter creates an interpreter driving g.
func NewInterpreter(g *Grid) *Interpreter {
	in := &Interpreter{grid: g, parser: NewParser()}
	in.emit = in.dispatch
	return in
}

// SetResponder sets where replies to status queries (DSR, DA) are written.
func (in *Interpreter) SetResponder(fn func([]byte)) {
	in.respond = fn
}

// Grid returns the grid being driven.
func (in *Interpreter) Grid() *Grid {
	return in.grid
}

// Feed applies data to the grid. Malformed input is consumed silently.
func (in *Interpreter) Feed(data []byte) {
	in.parser.Feed(data, in.emit)
}

// Write implements io.Writer. It never fails.
func (in *Interpreter) Write(p []byte) (int, error) {
	in.Feed(p)
	return len(p), nil
}

// DrainEvents returns and clears the events produced since the last call.
func (in *Interpreter) DrainEvents() []Event {
	if len(in.events) == 0 {
		return nil
	}
	ev := in.events
	in.events = nil
	return ev
}

func (in *Interpreter) event(kind EventKind, text string) {
	in.events = append(in.events, Event{Kind: kind, Text: text, Time: time.Now()})
}

func (in *Interpreter) reply(format string, args ...any) {
	if in.respond != nil {
		in.respond([]byte(fmt.Sprintf(format, args...)))
	}
}

func (in *Interpreter) dispatch(a *Action) {
	switch a.Kind {
	case ActionPrint:
		in.grid.Print(a.Rune)
	case ActionExecute:
		in.execute(a.Byte)
	case ActionESC:
		in.escDispatch(a)
	case ActionCSI:
		in.csiDispatch(a)
	case ActionOSC:
		in.oscDispatch(a.Data)
	}
}

func (in *Interpreter) execute(b byte) {
	g := in.grid
	switch b {
	case 0x07: // BEL
		in.event(EventBell, "")
	case 0x08: // BS
		g.Backspace()
	case 0x09: // HT
		g.Tab(1)
	case 0x0a, 0x0b, 0x0c: // LF, VT, FF
		g.LineFeed()
	case 0x0d: // CR
		g.CarriageReturn()
	case 0x0e: // SO
		g.ShiftCharset(1)
	case 0x0f: // SI
		g.ShiftCharset(0)
	}
}

func (in *Interpreter) escDispatch(a *Action) {
	g := in.grid
	if len(a.Intermediates) > 0 {
		switch a.Intermediates[0] {
		case '(':
			g.DesignateCharset(0, a.Byte)
		case ')':
			g.DesignateCharset(1, a.Byte)
		}
		return
	}

	switch a.Byte {
	case '7': // DECSC
		g.SaveCursor()
	case '8': // DECRC
		g.RestoreCursor()
	case 'D': // IND
		g.LineFeed()
	case 'E': // NEL
		g.CarriageReturn()
		g.LineFeed()
	case 'M': // RI
		g.ReverseLineFeed()
	case 'H': // HTS
		g.SetTabStop()
	case 'c': // RIS
		g.Reset()
	case '=': // DECKPAM
		g.modes.AppKeypad = true
	case '>': // DECKPNM
		g.modes.AppKeypad = false
	}
}

func (in *Interpreter) csiDispatch(a *Action) {
	g := in.grid

	switch a.Private {
	case 0:
	case '?':
		switch a.Byte {
		case 'h':
			in.privateMode(a, true)
		case 'l':
			in.privateMode(a, false)
		}
		return
	case '>':
		if a.Byte == 'c' { // secondary DA
			in.reply("\x1b[>0;10;1c")
		}
		return
	default:
		return
	}

	if len(a.Intermediates) > 0 {
		if a.Intermediates[0] == ' ' && a.Byte == 'q' { // DECSCUSR
			switch a.Param(0, 1) {
			case 1, 2:
				g.SetCursorStyle(CursorBlock)
			case 3, 4:
				g.SetCursorStyle(CursorUnderline)
			case 5, 6:
				g.SetCursorStyle(CursorBar)
			}
		}
		return
	}

	switch a.Byte {
	case 'A': // CUU
		g.MoveUp(a.Param(0, 1))
	case 'B', 'e': // CUD, VPR
		g.MoveDown(a.Param(0, 1))
	case 'C', 'a': // CUF, HPR
		g.MoveForward(a.Param(0, 1))
	case 'D': // CUB
		g.MoveBackward(a.Param(0, 1))
	case 'E': // CNL
		g.MoveDown(a.Param(0, 1))
		g.CarriageReturn()
	case 'F': // CPL
		g.MoveUp(a.Param(0, 1))
		g.CarriageReturn()
	case 'G', '`': // CHA, HPA
		g.SetColumn(a.Param(0, 1) - 1)
	case 'H', 'f': // CUP, HVP
		g.MoveCursor(a.Param(0, 1)-1, a.Param(1, 1)-1)
	case 'd': // VPA
		g.SetRow(a.Param(0, 1) - 1)
	case 'I': // CHT
		g.Tab(a.Param(0, 1))
	case 'Z': // CBT
		g.BackTab(a.Param(0, 1))
	case 'J': // ED
		g.EraseInDisplay(a.Param(0, 0))
	case 'K': // EL
		g.EraseInLine(a.Param(0, 0))
	case 'L': // IL
		g.InsertLines(a.Param(0, 1))
	case 'M': // DL
		g.DeleteLines(a.Param(0, 1))
	case 'P': // DCH
		g.DeleteChars(a.Param(0, 1))
	case 'S': // SU
		g.ScrollUp(a.Param(0, 1))
	case 'T': // SD
		if len(a.Params) <= 1 {
			g.ScrollDown(a.Param(0, 1))
		}
	case 'X': // ECH
		g.EraseChars(a.Param(0, 1))
	case '@': // ICH
		g.InsertChars(a.Param(0, 1))
	case 'g': // TBC
		g.ClearTabStop(a.Param(0, 0))
	case 'h', 'l': // SM, RM
		for _, mode := range a.Params {
			if mode == 4 {
				g.SetInsertMode(a.Byte == 'h')
			}
		}
	case 'm': // SGR
		in.sgr(a)
	case 'r': // DECSTBM
		g.SetScrollRegion(a.Param(0, 1)-1, a.Param(1, g.Rows())-1)
	case 's': // SCOSC
		g.SaveCursor()
	case 'u': // SCORC
		g.RestoreCursor()
	case 'n': // DSR
		switch a.Param(0, 0) {
		case 5:
			in.reply("\x1b[0n")
		case 6:
			c := g.ReportedCursor()
			in.reply("\x1b[%d;%dR", c.Row+1, c.Col+1)
		}
	case 'c': // DA
		if a.Param(0, 0) == 0 {
			in.reply("\x1b[?62;22c")
		}
	}
}

func (in *Interpreter) privateMode(a *Action, set bool) {
	g := in.grid
	for _, mode := range a.Params {
		switch mode {
		case 1: // DECCKM
			g.modes.AppCursor = set
		case 6: // DECOM
			g.SetOriginMode(set)
		case 7: // DECAWM
			g.SetAutoWrap(set)
		case 25: // DECTCEM
			g.SetCursorVisible(set)
		case 47, 1047:
			if set {
				g.EnterAltScreen(false)
			} else {
				g.ExitAltScreen(false)
			}
		case 1049:
			if set {
				g.EnterAltScreen(true)
			} else {
				g.ExitAltScreen(true)
			}
		case 9:
			in.mouseMode(input.MouseX10, set)
		case 1000:
			in.mouseMode(input.MouseNormal, set)
		case 1002:
			in.mouseMode(input.MouseDrag, set)
		case 1003:
			in.mouseMode(input.MouseAny, set)
		case 1004:
			g.modes.FocusEvents = set
		case 1006:
			g.modes.MouseSGR = set
		case 2004:
			g.modes.BracketedPaste = set
		}
	}
}

func (in *Interpreter) mouseMode(mode input.MouseMode, set bool) {
	switch {
	case set:
		in.grid.modes.Mouse = mode
	case in.grid.modes.Mouse == mode:
		in.grid.modes.Mouse = input.MouseNone
	}
}

func (in *Interpreter) oscDispatch(data []byte) {
	cmd, rest, _ := strings.Cut(string(data), ";")
	switch cmd {
	case "0", "2":
		in.grid.SetTitle(rest)
		in.event(EventTitle, rest)
	case "7":
		if dir := workingDirectory(rest); dir != "" {
			in.event(EventWorkingDirectory, dir)
		}
	case "52":
		_, payload, ok := strings.Cut(rest, ";")
		if !ok || payload == "?" {
			return
		}
		text, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return
		}
		in.event(EventClipboard, string(text))
	}
}

// workingDirectory extracts the path from an OSC 7 file:// URL. Plain paths
// are accepted as-is.
func workingDirectory(s string) string {
	if !strings.HasPrefix(s, "file://") {
		return s
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	return u.Path
}
