package terminal

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// SelectionMode is the kind of selection.
type SelectionMode uint8

const (
	// SelectNone means nothing is selected.
	SelectNone SelectionMode = iota
	// SelectNormal is a character stream selection.
	SelectNormal
	// SelectLine selects entire rows.
	SelectLine
	// SelectBlock is a rectangular selection.
	SelectBlock
)

// String returns the mode name.
func (m SelectionMode) String() string {
	switch m {
	case SelectNormal:
		return "normal"
	case SelectLine:
		return "line"
	case SelectBlock:
		return "block"
	default:
		return "none"
	}
}

// ParseSelectionMode maps a mode name to a SelectionMode.
func ParseSelectionMode(s string) SelectionMode {
	switch strings.ToLower(s) {
	case "normal", "simple", "char":
		return SelectNormal
	case "line":
		return SelectLine
	case "block", "rect":
		return SelectBlock
	default:
		return SelectNone
	}
}

// Selection is an inclusive range in absolute row coordinates. Anchor is
// where the selection started, Head follows the pointer.
type Selection struct {
	Anchor Point
	Head   Point
	Mode   SelectionMode
}

// IsEmpty reports whether nothing is selected.
func (s Selection) IsEmpty() bool {
	return s.Mode == SelectNone
}

// Normalize returns the selection bounds in reading order.
func (s Selection) Normalize() (start, end Point) {
	if s.Head.Before(s.Anchor) {
		return s.Head, s.Anchor
	}
	return s.Anchor, s.Head
}

// Contains reports whether the absolute position is selected.
func (s Selection) Contains(row, col int) bool {
	if s.IsEmpty() {
		return false
	}
	start, end := s.Normalize()
	if row < start.Row || row > end.Row {
		return false
	}
	switch s.Mode {
	case SelectLine:
		return true
	case SelectBlock:
		lo, hi := min(s.Anchor.Col, s.Head.Col), max(s.Anchor.Col, s.Head.Col)
		return col >= lo && col <= hi
	default:
		if row == start.Row && col < start.Col {
			return false
		}
		if row == end.Row && col > end.Col {
			return false
		}
		return true
	}
}

// StartSelection begins a selection at a viewport position.
func (g *Grid) StartSelection(mode SelectionMode, row, col int) {
	if mode == SelectNone {
		g.selection = Selection{}
		return
	}
	p := Point{Row: g.AbsoluteRow(clamp(row, 0, g.rows-1)), Col: clamp(col, 0, g.cols-1)}
	g.selection = Selection{Anchor: p, Head: p, Mode: mode}
}

// UpdateSelection moves the selection head to a viewport position.
func (g *Grid) UpdateSelection(row, col int) {
	if g.selection.IsEmpty() {
		return
	}
	g.selection.Head = Point{
		Row: g.AbsoluteRow(clamp(row, 0, g.rows-1)),
		Col: clamp(col, 0, g.cols-1),
	}
}

// ClearSelection removes the selection.
func (g *Grid) ClearSelection() {
	g.selection = Selection{}
}

// Selection returns the current selection.
func (g *Grid) Selection() Selection {
	return g.selection
}

// SelectionText returns the selected text. Trailing blanks are trimmed on
// each row, soft-wrapped rows are joined without a newline, and the result is
// NFC normalized. Rows already evicted from history are skipped.
func (g *Grid) SelectionText() string {
	sel := g.selection
	if sel.IsEmpty() {
		return ""
	}
	start, end := sel.Normalize()
	lo, hi := min(sel.Anchor.Col, sel.Head.Col), max(sel.Anchor.Col, sel.Head.Col)

	var sb strings.Builder
	for row := start.Row; row <= end.Row; row++ {
		line := g.lineAt(row)
		if line == nil {
			continue
		}
		from, to := 0, len(line.Cells)
		switch sel.Mode {
		case SelectNormal:
			if row == start.Row {
				from = start.Col
			}
			if row == end.Row {
				to = end.Col + 1
			}
		case SelectBlock:
			from, to = lo, hi+1
		}
		joined := sel.Mode != SelectBlock && line.Wrapped && to >= len(line.Cells) && row < end.Row
		sb.WriteString(lineText(line.Cells, from, to, !joined))
		if row < end.Row && !joined {
			sb.WriteByte('\n')
		}
	}
	return norm.NFC.String(sb.String())
}
