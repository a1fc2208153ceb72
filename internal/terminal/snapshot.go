package terminal

import (
	"strings"

	"github.com/dshills/khafre/internal/input"
)

// Snapshot is an immutable copy of everything a renderer needs for one
// frame. It shares no memory with the grid it came from.
type Snapshot struct {
	Cols int
	Rows int

	// Cells holds the viewport, Rows rows of exactly Cols cells, taking the
	// scroll offset into account.
	Cells [][]Cell

	// Cursor is in viewport coordinates. CursorVisible is false when the
	// application hid it or the viewport is scrolled past it.
	Cursor        Point
	CursorVisible bool
	CursorStyle   CursorStyle
	PendingWrap   bool

	ScrollOffset  int
	ScrollbackLen int

	// Selection is in absolute rows; FirstRow is the absolute row of Cells[0].
	Selection Selection
	FirstRow  int

	Title     string
	AltScreen bool
	Modes     input.Modes

	// Seq increases with every applied output batch or resize.
	Seq uint64
}

// Snapshot copies the current viewport and state.
func (g *Grid) Snapshot() *Snapshot {
	s := &Snapshot{
		Cols:          g.cols,
		Rows:          g.rows,
		CursorStyle:   g.cursorStyle,
		ScrollOffset:  g.scrollOffset,
		ScrollbackLen: g.history.Len(),
		Selection:     g.selection,
		FirstRow:      g.AbsoluteRow(0),
		Title:         g.title,
		AltScreen:     g.alt,
		Modes:         g.modes,
	}

	backing := make([]Cell, g.cols*g.rows)
	s.Cells = make([][]Cell, g.rows)
	for r := 0; r < g.rows; r++ {
		row := backing[r*g.cols : (r+1)*g.cols : (r+1)*g.cols]
		n := 0
		if line := g.viewLine(r); line != nil {
			n = copy(row, line.Cells)
		}
		for ; n < g.cols; n++ {
			row[n] = EmptyCell()
		}
		s.Cells[r] = row
	}

	s.Cursor = Point{Row: g.cursor.Row + g.scrollOffset, Col: g.col()}
	s.PendingWrap = g.cursor.Col >= g.cols
	s.CursorVisible = g.cursorVisible && s.Cursor.Row < g.rows
	return s
}

// Cell returns the cell at a viewport position.
func (s *Snapshot) Cell(row, col int) Cell {
	if row < 0 || row >= s.Rows || col < 0 || col >= s.Cols {
		return EmptyCell()
	}
	return s.Cells[row][col]
}

// Selected reports whether a viewport position is inside the selection.
func (s *Snapshot) Selected(row, col int) bool {
	return s.Selection.Contains(s.FirstRow+row, col)
}

// Line returns the text of viewport row r with trailing blanks trimmed.
func (s *Snapshot) Line(r int) string {
	if r < 0 || r >= s.Rows {
		return ""
	}
	return lineText(s.Cells[r], 0, s.Cols, true)
}

// Text returns the viewport as text, one line per row.
func (s *Snapshot) Text() string {
	var sb strings.Builder
	for r := 0; r < s.Rows; r++ {
		if r > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(s.Line(r))
	}
	return sb.String()
}
