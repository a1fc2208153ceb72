package viewer

import (
	"github.com/gdamore/tcell/v2"

	"github.com/dshills/khafre/internal/terminal"
	"github.com/dshills/khafre/internal/theme"
)

// draw paints a snapshot and shows it.
func (v *Viewer) draw(snap *terminal.Snapshot) {
	v.mu.Lock()
	v.last = snap
	scheme := v.scheme
	v.mu.Unlock()

	width, height := v.screen.Size()
	base := tcell.StyleDefault.
		Foreground(rgb(scheme.Foreground)).
		Background(rgb(scheme.Background))
	v.screen.SetStyle(base)
	v.screen.Clear()

	for row := 0; row < snap.Rows && row < height; row++ {
		for col := 0; col < snap.Cols && col < width; col++ {
			c := snap.Cell(row, col)
			if c.Attributes.Has(terminal.AttrWideContinuation) {
				continue
			}
			mainc, combc := splitContent(c.Content)
			v.screen.SetContent(col, row, mainc, combc, cellStyle(scheme, c, snap.Selected(row, col)))
		}
	}

	if snap.CursorVisible {
		v.screen.SetCursorStyle(cursorStyle(snap.CursorStyle))
		v.screen.ShowCursor(snap.Cursor.Col, snap.Cursor.Row)
	} else {
		v.screen.HideCursor()
	}
	v.screen.Show()
}

func splitContent(s string) (rune, []rune) {
	if s == "" {
		return ' ', nil
	}
	runes := []rune(s)
	return runes[0], runes[1:]
}

func rgb(c theme.RGB) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// cellStyle resolves a cell's colors through the scheme. Inverse, dim and
// hidden are folded into the colors; the rest map to tcell attributes.
func cellStyle(s theme.Scheme, c terminal.Cell, selected bool) tcell.Style {
	fg, bg := s.CellColors(c, selected)
	style := tcell.StyleDefault.Foreground(rgb(fg)).Background(rgb(bg))

	a := c.Attributes
	if a.Has(terminal.AttrBold) {
		style = style.Bold(true)
	}
	if a.Has(terminal.AttrItalic) {
		style = style.Italic(true)
	}
	if a.Has(terminal.AttrUnderline) {
		style = style.Underline(true)
	}
	if a.Has(terminal.AttrBlink) {
		style = style.Blink(true)
	}
	if a.Has(terminal.AttrStrike) {
		style = style.StrikeThrough(true)
	}
	return style
}

func cursorStyle(s terminal.CursorStyle) tcell.CursorStyle {
	switch s {
	case terminal.CursorUnderline:
		return tcell.CursorStyleSteadyUnderline
	case terminal.CursorBar:
		return tcell.CursorStyleSteadyBar
	default:
		return tcell.CursorStyleSteadyBlock
	}
}
