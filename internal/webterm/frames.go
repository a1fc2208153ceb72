package webterm

import (
	"strings"

	"github.com/dshills/khafre/internal/terminal"
	"github.com/dshills/khafre/internal/theme"
)

// Server frame types.
const (
	frameSnapshot  = "snapshot"
	frameEvent     = "event"
	frameExit      = "exit"
	frameSelection = "selection"
	frameError     = "error"
	framePong      = "pong"
)

// span is a run of cells sharing one style.
type span struct {
	Text      string `json:"t"`
	FG        string `json:"fg"`
	BG        string `json:"bg"`
	Bold      bool   `json:"bold,omitempty"`
	Italic    bool   `json:"italic,omitempty"`
	Underline bool   `json:"underline,omitempty"`
	Strike    bool   `json:"strike,omitempty"`
	Blink     bool   `json:"blink,omitempty"`
}

func (s span) sameStyle(o span) bool {
	o.Text = s.Text
	return s == o
}

type cursorFrame struct {
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	Visible bool   `json:"visible"`
	Style   string `json:"style"`
}

type snapshotFrame struct {
	Type          string      `json:"type"`
	Seq           uint64      `json:"seq"`
	Cols          int         `json:"cols"`
	Rows          int         `json:"rows"`
	Cursor        cursorFrame `json:"cursor"`
	Title         string      `json:"title,omitempty"`
	AltScreen     bool        `json:"altScreen,omitempty"`
	ScrollOffset  int         `json:"scrollOffset"`
	ScrollbackLen int         `json:"scrollbackLen"`
	Background    string      `json:"background"`
	Foreground    string      `json:"foreground"`
	Lines         [][]span    `json:"lines"`
}

type eventFrame struct {
	Type  string `json:"type"`
	Event string `json:"event"`
	Text  string `json:"text,omitempty"`
	Time  int64  `json:"time"`
}

type exitFrame struct {
	Type string `json:"type"`
	Code int    `json:"code"`
}

type textFrame struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type errorFrame struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// buildSnapshotFrame resolves a snapshot's colors through scheme and
// merges equal-styled neighbors into spans.
func buildSnapshotFrame(snap *terminal.Snapshot, scheme theme.Scheme) snapshotFrame {
	f := snapshotFrame{
		Type: frameSnapshot,
		Seq:  snap.Seq,
		Cols: snap.Cols,
		Rows: snap.Rows,
		Cursor: cursorFrame{
			Row:     snap.Cursor.Row,
			Col:     snap.Cursor.Col,
			Visible: snap.CursorVisible,
			Style:   snap.CursorStyle.String(),
		},
		Title:         snap.Title,
		AltScreen:     snap.AltScreen,
		ScrollOffset:  snap.ScrollOffset,
		ScrollbackLen: snap.ScrollbackLen,
		Background:    scheme.Background.Hex(),
		Foreground:    scheme.Foreground.Hex(),
		Lines:         make([][]span, snap.Rows),
	}

	for row := 0; row < snap.Rows; row++ {
		var spans []span
		var text strings.Builder
		var cur span
		flush := func() {
			if text.Len() == 0 {
				return
			}
			cur.Text = text.String()
			spans = append(spans, cur)
			text.Reset()
		}
		for col := 0; col < snap.Cols; col++ {
			c := snap.Cell(row, col)
			if c.Attributes.Has(terminal.AttrWideContinuation) {
				continue
			}
			fg, bg := scheme.CellColors(c, snap.Selected(row, col))
			a := c.Attributes
			s := span{
				FG:        fg.Hex(),
				BG:        bg.Hex(),
				Bold:      a.Has(terminal.AttrBold),
				Italic:    a.Has(terminal.AttrItalic),
				Underline: a.Has(terminal.AttrUnderline),
				Strike:    a.Has(terminal.AttrStrike),
				Blink:     a.Has(terminal.AttrBlink),
			}
			if text.Len() > 0 && !s.sameStyle(cur) {
				flush()
			}
			cur = s
			text.WriteString(c.Text())
		}
		flush()
		f.Lines[row] = spans
	}
	return f
}

func buildEventFrame(ev terminal.Event) eventFrame {
	return eventFrame{
		Type:  frameEvent,
		Event: ev.Kind.String(),
		Text:  ev.Text,
		Time:  ev.Time.UnixMilli(),
	}
}
