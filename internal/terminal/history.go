package terminal

import "strings"

// MaxScrollback is the hard cap on retained scrollback rows.
const MaxScrollback = 10000

// History is the scrollback buffer: a bounded FIFO of rows that scrolled off
// the top of the screen. Index 0 is the oldest retained row.
type History struct {
	lines []*Line
	start int
	count int
}

// NewHistory creates a history holding at most maxLines rows, capped at
// MaxScrollback.
func NewHistory(maxLines int) *History {
	if maxLines <= 0 || maxLines > MaxScrollback {
		maxLines = MaxScrollback
	}
	return &History{lines: make([]*Line, maxLines)}
}

// Push appends a row, evicting the oldest when full. It reports whether a row
// was evicted.
func (h *History) Push(line *Line) bool {
	max := len(h.lines)
	if h.count < max {
		h.lines[(h.start+h.count)%max] = line
		h.count++
		return false
	}
	h.lines[h.start] = line
	h.start = (h.start + 1) % max
	return true
}

// PopNewest removes and returns the most recent row, or nil when empty.
func (h *History) PopNewest() *Line {
	if h.count == 0 {
		return nil
	}
	idx := (h.start + h.count - 1) % len(h.lines)
	line := h.lines[idx]
	h.lines[idx] = nil
	h.count--
	return line
}

// Line returns the row at index i (0 is oldest), or nil when out of range.
func (h *History) Line(i int) *Line {
	if i < 0 || i >= h.count {
		return nil
	}
	return h.lines[(h.start+i)%len(h.lines)]
}

// Len returns the number of retained rows.
func (h *History) Len() int {
	return h.count
}

// Cap returns the maximum number of retained rows.
func (h *History) Cap() int {
	return len(h.lines)
}

// Clear drops all rows.
func (h *History) Clear() {
	for i := range h.lines {
		h.lines[i] = nil
	}
	h.start = 0
	h.count = 0
}

// Text returns all retained rows joined by newlines.
func (h *History) Text() string {
	var sb strings.Builder
	for i := 0; i < h.count; i++ {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(h.Line(i).String())
	}
	return sb.String()
}
