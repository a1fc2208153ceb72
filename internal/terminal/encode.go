package terminal

import (
	"strconv"
	"strings"
)

// EncodeANSI renders the snapshot as SGR sequences and text. Feeding the
// result to a fresh interpreter of the same size reproduces the colors and
// attributes of every cell.
func (s *Snapshot) EncodeANSI() string {
	var sb strings.Builder
	sb.WriteString("\x1b[0m")

	var pen Cell
	pen.Foreground, pen.Background = DefaultForeground, DefaultBackground
	for r := 0; r < s.Rows; r++ {
		if r > 0 {
			sb.WriteString("\r\n")
		}
		row := s.Cells[r]
		last := len(row)
		for last > 0 && isPlainBlank(row[last-1]) {
			last--
		}
		for c := 0; c < last; c++ {
			cell := row[c]
			if cell.Attributes.Has(AttrWideContinuation) {
				continue
			}
			if !sameStyle(cell, pen) {
				writeSGR(&sb, cell)
				pen = cell
			}
			sb.WriteString(cell.Text())
		}
	}
	if !sameStyle(pen, EmptyCell()) {
		sb.WriteString("\x1b[0m")
	}
	return sb.String()
}

func isPlainBlank(c Cell) bool {
	return (c.Content == "" || c.Content == " ") &&
		c.Attributes&attrStyle == 0 &&
		c.Foreground.Default && c.Background.Default
}

func sameStyle(a, b Cell) bool {
	return a.Foreground == b.Foreground &&
		a.Background == b.Background &&
		a.Attributes&attrStyle == b.Attributes&attrStyle
}

var sgrAttrs = []struct {
	attr CellAttributes
	code string
}{
	{AttrBold, "1"},
	{AttrDim, "2"},
	{AttrItalic, "3"},
	{AttrUnderline, "4"},
	{AttrBlink, "5"},
	{AttrInverse, "7"},
	{AttrHidden, "8"},
	{AttrStrike, "9"},
}

// writeSGR emits a reset followed by the full style of c.
func writeSGR(sb *strings.Builder, c Cell) {
	sb.WriteString("\x1b[0")
	for _, a := range sgrAttrs {
		if c.Attributes.Has(a.attr) {
			sb.WriteByte(';')
			sb.WriteString(a.code)
		}
	}
	writeColor(sb, c.Foreground, 30, 90, "38")
	writeColor(sb, c.Background, 40, 100, "48")
	sb.WriteByte('m')
}

func writeColor(sb *strings.Builder, c Color, base, bright int, ext string) {
	switch {
	case c.Default:
		return
	case c.Index < 0:
		sb.WriteString(";" + ext + ";2;")
		sb.WriteString(strconv.Itoa(int(c.R)))
		sb.WriteByte(';')
		sb.WriteString(strconv.Itoa(int(c.G)))
		sb.WriteByte(';')
		sb.WriteString(strconv.Itoa(int(c.B)))
	case c.Index < 8:
		sb.WriteByte(';')
		sb.WriteString(strconv.Itoa(base + c.Index))
	case c.Index < 16:
		sb.WriteByte(';')
		sb.WriteString(strconv.Itoa(bright + c.Index - 8))
	default:
		sb.WriteString(";" + ext + ";5;")
		sb.WriteString(strconv.Itoa(c.Index))
	}
}
