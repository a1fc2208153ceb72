package terminal

// Color represents a terminal color.
type Color struct {
	R, G, B uint8
	Index   int  // -1 for RGB, 0-255 for indexed
	Default bool // Use default fg/bg
}

// DefaultForeground is the default foreground color.
var DefaultForeground = Color{Default: true}

// DefaultBackground is the default background color.
var DefaultBackground = Color{Default: true}

// palette holds the RGB values xterm uses for indices 0-15. Presentation
// layers usually substitute a theme for these.
var palette = [16][3]uint8{
	{0, 0, 0}, {205, 0, 0}, {0, 205, 0}, {205, 205, 0},
	{0, 0, 238}, {205, 0, 205}, {0, 205, 205}, {229, 229, 229},
	{127, 127, 127}, {255, 0, 0}, {0, 255, 0}, {255, 255, 0},
	{92, 92, 255}, {255, 0, 255}, {0, 255, 255}, {255, 255, 255},
}

// ColorFromIndex returns a color from a 256-color index.
func ColorFromIndex(index int) Color {
	switch {
	case index < 0 || index > 255:
		return DefaultForeground
	case index < 16:
		p := palette[index]
		return Color{R: p[0], G: p[1], B: p[2], Index: index}
	case index < 232:
		// 6x6x6 cube
		n := index - 16
		return Color{
			R:     uint8((n / 36) * 51),
			G:     uint8(((n / 6) % 6) * 51),
			B:     uint8((n % 6) * 51),
			Index: index,
		}
	default:
		gray := uint8((index-232)*10 + 8)
		return Color{R: gray, G: gray, B: gray, Index: index}
	}
}

// ColorFromRGB creates an RGB color.
func ColorFromRGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, Index: -1}
}

// IsRGB reports whether the color was set as direct RGB.
func (c Color) IsRGB() bool {
	return !c.Default && c.Index < 0
}

// CellAttributes represents text attributes for a cell.
type CellAttributes uint16

const (
	AttrNone      CellAttributes = 0
	AttrBold      CellAttributes = 1 << 0
	AttrDim       CellAttributes = 1 << 1
	AttrItalic    CellAttributes = 1 << 2
	AttrUnderline CellAttributes = 1 << 3
	AttrBlink     CellAttributes = 1 << 4
	AttrInverse   CellAttributes = 1 << 5
	AttrHidden    CellAttributes = 1 << 6
	AttrStrike    CellAttributes = 1 << 7

	// AttrWide marks the first column of a double-width character.
	AttrWide CellAttributes = 1 << 8
	// AttrWideContinuation marks the second column; it never has content.
	AttrWideContinuation CellAttributes = 1 << 9

	// attrStyle is the set of attributes carried by the pen.
	attrStyle = AttrBold | AttrDim | AttrItalic | AttrUnderline | AttrBlink |
		AttrInverse | AttrHidden | AttrStrike
)

// Has returns true if the attribute is set.
func (a CellAttributes) Has(attr CellAttributes) bool {
	return a&attr != 0
}

// Cell represents a single character cell in the terminal.
type Cell struct {
	// Content is one grapheme cluster. Empty means blank.
	Content    string
	Foreground Color
	Background Color
	Attributes CellAttributes
}

// EmptyCell returns a cell with default values.
func EmptyCell() Cell {
	return Cell{
		Foreground: DefaultForeground,
		Background: DefaultBackground,
	}
}

// blankCell is an erased cell that keeps the pen background.
func blankCell(bg Color) Cell {
	return Cell{Foreground: DefaultForeground, Background: bg}
}

// Text returns the cell content, or a space for blank cells.
func (c Cell) Text() string {
	if c.Content == "" {
		return " "
	}
	return c.Content
}

// Width returns the number of columns the cell's character occupies.
func (c Cell) Width() int {
	switch {
	case c.Attributes.Has(AttrWideContinuation):
		return 0
	case c.Attributes.Has(AttrWide):
		return 2
	default:
		return 1
	}
}

// Line represents a single row of cells.
type Line struct {
	Cells   []Cell
	Wrapped bool // True if this line soft-wraps into the next
}

// NewLine creates a new line with the given width.
func NewLine(width int) *Line {
	cells := make([]Cell, width)
	for i := range cells {
		cells[i] = EmptyCell()
	}
	return &Line{Cells: cells}
}

// Clone returns a deep copy of the line.
func (l *Line) Clone() *Line {
	cells := make([]Cell, len(l.Cells))
	copy(cells, l.Cells)
	return &Line{Cells: cells, Wrapped: l.Wrapped}
}

// Clear clears the line with blank cells.
func (l *Line) Clear(bg Color) {
	l.ClearRange(0, len(l.Cells), bg)
	l.Wrapped = false
}

// ClearRange clears cells in the range [start, end), blanking any wide
// character that straddles either edge.
func (l *Line) ClearRange(start, end int, bg Color) {
	if start < 0 {
		start = 0
	}
	if end > len(l.Cells) {
		end = len(l.Cells)
	}
	if start >= end {
		return
	}
	l.splitWide(start)
	l.splitWide(end - 1)
	for i := start; i < end; i++ {
		l.Cells[i] = blankCell(bg)
	}
}

// splitWide blanks the other half of a wide character at col so that col can
// be overwritten without leaving half a glyph behind.
func (l *Line) splitWide(col int) {
	if col < 0 || col >= len(l.Cells) {
		return
	}
	c := l.Cells[col]
	switch {
	case c.Attributes.Has(AttrWideContinuation):
		if col > 0 {
			l.Cells[col-1] = blankCell(l.Cells[col-1].Background)
		}
		l.Cells[col] = blankCell(c.Background)
	case c.Attributes.Has(AttrWide):
		if col+1 < len(l.Cells) {
			l.Cells[col+1] = blankCell(l.Cells[col+1].Background)
		}
		l.Cells[col] = blankCell(c.Background)
	}
}

// resize truncates or pads the line to width columns.
func (l *Line) resize(width int) {
	switch {
	case width < len(l.Cells):
		l.Cells = l.Cells[:width:width]
		if width > 0 && l.Cells[width-1].Attributes.Has(AttrWide) {
			l.Cells[width-1] = blankCell(l.Cells[width-1].Background)
		}
		l.Wrapped = false
	case width > len(l.Cells):
		for len(l.Cells) < width {
			l.Cells = append(l.Cells, EmptyCell())
		}
	}
}

// String returns the line text with trailing blanks removed.
func (l *Line) String() string {
	return lineText(l.Cells, 0, len(l.Cells), true)
}

// lineText concatenates cell content for [start, end), skipping wide
// continuations and optionally trimming trailing blanks.
func lineText(cells []Cell, start, end int, trim bool) string {
	if start < 0 {
		start = 0
	}
	if end > len(cells) {
		end = len(cells)
	}
	if start >= end {
		return ""
	}
	last := end
	if trim {
		last = start
		for i := start; i < end; i++ {
			if c := cells[i].Content; c != "" && c != " " {
				last = i + 1
			}
		}
	}
	buf := make([]byte, 0, last-start)
	for i := start; i < last; i++ {
		c := cells[i]
		if c.Attributes.Has(AttrWideContinuation) {
			continue
		}
		if c.Content == "" {
			buf = append(buf, ' ')
			continue
		}
		buf = append(buf, c.Content...)
	}
	return string(buf)
}
