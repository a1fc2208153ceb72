package terminal

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"

	"github.com/dshills/khafre/internal/input"
)

// widthCondition pins East Asian ambiguous characters to one column so the
// grid does not depend on the locale of the host process.
var widthCondition = &runewidth.Condition{EastAsianWidth: false}

// CursorStyle represents the cursor appearance.
type CursorStyle int

const (
	CursorBlock CursorStyle = iota
	CursorUnderline
	CursorBar
)

// String returns the style name.
func (s CursorStyle) String() string {
	switch s {
	case CursorUnderline:
		return "underline"
	case CursorBar:
		return "bar"
	default:
		return "block"
	}
}

// Point is a (row, column) position. Depending on context the row is a
// screen row or an absolute row (see Grid.AbsoluteRow).
type Point struct {
	Row, Col int
}

// Before reports whether p sorts before q in reading order.
func (p Point) Before(q Point) bool {
	return p.Row < q.Row || (p.Row == q.Row && p.Col < q.Col)
}

type charset uint8

const (
	charsetASCII charset = iota
	charsetLineDrawing
)

type savedCursor struct {
	cursor     Point
	fg, bg     Color
	attrs      CellAttributes
	originMode bool
	charsets   [2]charset
	gl         int
	valid      bool
}

// Grid is the screen model: visible rows, scrollback, cursor, pen and modes.
//
// Grid is not safe for concurrent use. A Session serializes every access
// behind its own lock.
type Grid struct {
	cols, rows int
	lines      []*Line
	main       []*Line // main screen rows while the alternate screen is active
	alt        bool

	history      *History
	scrolled     int // rows ever pushed into history
	scrollOffset int

	cursor        Point
	cursorVisible bool
	cursorStyle   CursorStyle

	scrollTop    int
	scrollBottom int

	// pen
	fg, bg Color
	attrs  CellAttributes

	saved    savedCursor
	altSaved savedCursor

	originMode bool
	autoWrap   bool
	insertMode bool
	modes      input.Modes

	tabStops []bool
	charsets [2]charset
	gl       int

	title     string
	selection Selection

	// last written cell, for appending combining characters
	lastLine *Line
	lastCol  int
}

// NewGrid creates a grid with the given dimensions and scrollback capacity.
func NewGrid(cols, rows, scrollback int) *Grid {
	if cols < 1 {
		cols = 80
	}
	if rows < 1 {
		rows = 24
	}
	g := &Grid{
		cols:    cols,
		rows:    rows,
		history: NewHistory(scrollback),
	}
	g.lines = make([]*Line, rows)
	for i := range g.lines {
		g.lines[i] = NewLine(cols)
	}
	g.resetState()
	return g
}

func (g *Grid) resetState() {
	g.cursor = Point{}
	g.cursorVisible = true
	g.cursorStyle = CursorBlock
	g.scrollTop = 0
	g.scrollBottom = g.rows - 1
	g.fg = DefaultForeground
	g.bg = DefaultBackground
	g.attrs = AttrNone
	g.saved = savedCursor{}
	g.altSaved = savedCursor{}
	g.originMode = false
	g.autoWrap = true
	g.insertMode = false
	g.modes = input.Modes{}
	g.charsets = [2]charset{}
	g.gl = 0
	g.lastLine = nil
	g.resetTabStops()
}

func (g *Grid) resetTabStops() {
	g.tabStops = make([]bool, g.cols)
	for i := 8; i < g.cols; i += 8 {
		g.tabStops[i] = true
	}
}

// Cols returns the number of columns.
func (g *Grid) Cols() int { return g.cols }

// Rows returns the number of visible rows.
func (g *Grid) Rows() int { return g.rows }

// Cursor returns the cursor position. Col may equal Cols() when a wrap is
// pending.
func (g *Grid) Cursor() Point { return g.cursor }

// ReportedCursor returns the cursor as a position report sees it: a pending
// wrap is folded onto the last column, and in origin mode the row is
// relative to the top of the scroll region.
func (g *Grid) ReportedCursor() Point {
	p := Point{Row: g.cursor.Row, Col: g.col()}
	if g.originMode {
		p.Row -= g.scrollTop
	}
	return p
}

// CursorVisible reports whether the cursor is shown.
func (g *Grid) CursorVisible() bool { return g.cursorVisible }

// CursorStyle returns the cursor shape.
func (g *Grid) CursorStyle() CursorStyle { return g.cursorStyle }

// Title returns the last title set by the application.
func (g *Grid) Title() string { return g.title }

// Modes returns the input-affecting terminal modes.
func (g *Grid) Modes() input.Modes { return g.modes }

// AltScreen reports whether the alternate screen is active.
func (g *Grid) AltScreen() bool { return g.alt }

// History returns the scrollback buffer.
func (g *Grid) History() *History { return g.history }

// ScrollOffset returns how many rows the viewport is scrolled back.
func (g *Grid) ScrollOffset() int { return g.scrollOffset }

// Line returns visible row y, or nil when out of range.
func (g *Grid) Line(y int) *Line {
	if y < 0 || y >= g.rows {
		return nil
	}
	return g.lines[y]
}

// Cell returns the visible cell at (row, col).
func (g *Grid) Cell(row, col int) Cell {
	if row < 0 || row >= g.rows || col < 0 || col >= g.cols {
		return EmptyCell()
	}
	return g.lines[row].Cells[col]
}

// col is the cursor column with a pending wrap folded onto the last column.
func (g *Grid) col() int {
	if g.cursor.Col >= g.cols {
		return g.cols - 1
	}
	return g.cursor.Col
}

func (g *Grid) blankLine() *Line {
	l := NewLine(g.cols)
	if !g.bg.Default {
		l.Clear(g.bg)
	}
	return l
}

// Print writes a decoded character at the cursor.
func (g *Grid) Print(r rune) {
	if g.charsets[g.gl] == charsetLineDrawing {
		r = lineDrawing(r)
	}
	if r >= 0x80 && g.joinGrapheme(r) {
		return
	}
	w := widthCondition.RuneWidth(r)
	if w == 0 {
		return
	}
	g.writeCell(string(r), w)
}

// joinGrapheme appends r to the cell written immediately before the cursor
// when it extends that cell's grapheme cluster (combining marks, ZWJ
// sequences, variation selectors, flag pairs). A mark that follows cursor
// motion has no base cell and is dropped.
func (g *Grid) joinGrapheme(r rune) bool {
	if g.lastLine == nil || g.lastLine != g.lines[g.cursor.Row] || g.lastCol >= len(g.lastLine.Cells) {
		return false
	}
	cell := &g.lastLine.Cells[g.lastCol]
	if cell.Content == "" {
		return false
	}
	width := 1
	if cell.Attributes.Has(AttrWide) {
		width = 2
	}
	if g.lastCol+width != g.cursor.Col {
		return false
	}
	joined := cell.Content + string(r)
	_, rest, _, _ := uniseg.FirstGraphemeClusterInString(joined, -1)
	if rest != "" {
		return false
	}
	cell.Content = joined
	return true
}

func (g *Grid) writeCell(content string, width int) {
	if width > g.cols {
		width = 1
	}
	if g.cursor.Col+width > g.cols {
		if g.autoWrap {
			g.lines[g.cursor.Row].Wrapped = true
			g.cursor.Col = 0
			g.LineFeed()
		} else {
			g.cursor.Col = g.cols - width
		}
	}
	if g.insertMode {
		g.InsertChars(width)
	}

	line := g.lines[g.cursor.Row]
	col := g.cursor.Col
	line.splitWide(col)
	if width == 2 {
		line.splitWide(col + 1)
	}

	line.Cells[col] = Cell{
		Content:    content,
		Foreground: g.fg,
		Background: g.bg,
		Attributes: g.attrs,
	}
	if width == 2 {
		line.Cells[col].Attributes |= AttrWide
		line.Cells[col+1] = Cell{
			Foreground: g.fg,
			Background: g.bg,
			Attributes: g.attrs | AttrWideContinuation,
		}
	}
	g.lastLine, g.lastCol = line, col
	g.cursor.Col += width
}

// MoveCursor moves to (row, col), honoring origin mode.
func (g *Grid) MoveCursor(row, col int) {
	top, bottom := 0, g.rows-1
	if g.originMode {
		top, bottom = g.scrollTop, g.scrollBottom
		row += top
	}
	g.cursor.Row = clamp(row, top, bottom)
	g.cursor.Col = clamp(col, 0, g.cols-1)
}

// SetColumn moves the cursor to col on the current row.
func (g *Grid) SetColumn(col int) {
	g.cursor.Col = clamp(col, 0, g.cols-1)
}

// SetRow moves the cursor to row keeping the column.
func (g *Grid) SetRow(row int) {
	g.MoveCursor(row, g.col())
}

// MoveUp moves the cursor up, stopping at the top margin when inside the
// scroll region.
func (g *Grid) MoveUp(n int) {
	top := 0
	if g.cursor.Row >= g.scrollTop {
		top = g.scrollTop
	}
	g.cursor.Row = max(g.cursor.Row-n, top)
	g.cursor.Col = g.col()
}

// MoveDown moves the cursor down, stopping at the bottom margin when inside
// the scroll region.
func (g *Grid) MoveDown(n int) {
	bottom := g.rows - 1
	if g.cursor.Row <= g.scrollBottom {
		bottom = g.scrollBottom
	}
	g.cursor.Row = min(g.cursor.Row+n, bottom)
	g.cursor.Col = g.col()
}

// MoveForward moves the cursor right by n columns.
func (g *Grid) MoveForward(n int) {
	g.cursor.Col = min(g.col()+n, g.cols-1)
}

// MoveBackward moves the cursor left by n columns.
func (g *Grid) MoveBackward(n int) {
	g.cursor.Col = max(g.col()-n, 0)
}

// CarriageReturn moves cursor to beginning of current line.
func (g *Grid) CarriageReturn() {
	g.cursor.Col = 0
}

// Backspace moves the cursor one column left.
func (g *Grid) Backspace() {
	g.MoveBackward(1)
}

// LineFeed moves the cursor down one line, scrolling at the bottom margin.
func (g *Grid) LineFeed() {
	switch {
	case g.cursor.Row == g.scrollBottom:
		g.ScrollUp(1)
	case g.cursor.Row < g.rows-1:
		g.cursor.Row++
	}
}

// ReverseLineFeed moves the cursor up one line, scrolling at the top margin.
func (g *Grid) ReverseLineFeed() {
	switch {
	case g.cursor.Row == g.scrollTop:
		g.ScrollDown(1)
	case g.cursor.Row > 0:
		g.cursor.Row--
	}
}

// Tab advances to the n-th next tab stop.
func (g *Grid) Tab(n int) {
	col := g.col()
	for ; n > 0 && col < g.cols-1; n-- {
		col++
		for col < g.cols-1 && !g.tabStops[col] {
			col++
		}
	}
	g.cursor.Col = col
}

// BackTab moves back to the n-th previous tab stop.
func (g *Grid) BackTab(n int) {
	col := g.col()
	for ; n > 0 && col > 0; n-- {
		col--
		for col > 0 && !g.tabStops[col] {
			col--
		}
	}
	g.cursor.Col = col
}

// SetTabStop sets a tab stop at the cursor column.
func (g *Grid) SetTabStop() {
	g.tabStops[g.col()] = true
}

// ClearTabStop clears the stop at the cursor (mode 0) or all stops (mode 3).
func (g *Grid) ClearTabStop(mode int) {
	switch mode {
	case 0:
		g.tabStops[g.col()] = false
	case 3:
		for i := range g.tabStops {
			g.tabStops[i] = false
		}
	}
}

// AppendRow pushes a row that scrolled off the top into history. While the
// viewport is scrolled back it follows the content so the view stays still.
func (g *Grid) AppendRow(line *Line) {
	g.history.Push(line)
	g.scrolled++
	if g.scrollOffset > 0 {
		g.scrollOffset = min(g.scrollOffset+1, g.history.Len())
	}
}

// ScrollUp scrolls the scroll region up by n lines. Rows leaving a region
// anchored at the top of the main screen go to history.
func (g *Grid) ScrollUp(n int) {
	top, bottom := g.scrollTop, g.scrollBottom
	n = min(n, bottom-top+1)
	if n <= 0 {
		return
	}
	if top == 0 && !g.alt {
		for i := 0; i < n; i++ {
			g.AppendRow(g.lines[i])
		}
	}
	copy(g.lines[top:], g.lines[top+n:bottom+1])
	for y := bottom - n + 1; y <= bottom; y++ {
		g.lines[y] = g.blankLine()
	}
}

// ScrollDown scrolls the scroll region down by n lines.
func (g *Grid) ScrollDown(n int) {
	top, bottom := g.scrollTop, g.scrollBottom
	n = min(n, bottom-top+1)
	if n <= 0 {
		return
	}
	copy(g.lines[top+n:bottom+1], g.lines[top:bottom+1-n])
	for y := top; y < top+n; y++ {
		g.lines[y] = g.blankLine()
	}
}

// SetScrollRegion sets the scroll region to rows [top, bottom] and homes the
// cursor. Invalid regions are ignored.
func (g *Grid) SetScrollRegion(top, bottom int) {
	top = max(top, 0)
	bottom = min(bottom, g.rows-1)
	if top >= bottom {
		return
	}
	g.scrollTop = top
	g.scrollBottom = bottom
	g.MoveCursor(0, 0)
}

// EraseInDisplay implements ED: 0 below, 1 above, 2 all, 3 scrollback.
func (g *Grid) EraseInDisplay(mode int) {
	switch mode {
	case 0:
		g.EraseInLine(0)
		for y := g.cursor.Row + 1; y < g.rows; y++ {
			g.lines[y].Clear(g.bg)
		}
	case 1:
		for y := 0; y < g.cursor.Row; y++ {
			g.lines[y].Clear(g.bg)
		}
		g.EraseInLine(1)
	case 2:
		for y := 0; y < g.rows; y++ {
			g.lines[y].Clear(g.bg)
		}
	case 3:
		g.history.Clear()
		g.scrollOffset = 0
	}
}

// EraseInLine implements EL: 0 right of cursor, 1 left of cursor, 2 whole line.
func (g *Grid) EraseInLine(mode int) {
	line := g.lines[g.cursor.Row]
	switch mode {
	case 0:
		line.ClearRange(g.col(), g.cols, g.bg)
		line.Wrapped = false
	case 1:
		line.ClearRange(0, g.col()+1, g.bg)
	case 2:
		line.Clear(g.bg)
	}
}

// EraseChars blanks n cells starting at the cursor.
func (g *Grid) EraseChars(n int) {
	col := g.col()
	g.lines[g.cursor.Row].ClearRange(col, col+n, g.bg)
}

// InsertChars shifts the rest of the line right by n blank cells.
func (g *Grid) InsertChars(n int) {
	line := g.lines[g.cursor.Row]
	col := g.col()
	n = min(n, g.cols-col)
	if n <= 0 {
		return
	}
	line.splitWide(col)
	copy(line.Cells[col+n:], line.Cells[col:g.cols-n])
	for i := col; i < col+n; i++ {
		line.Cells[i] = blankCell(g.bg)
	}
	if last := &line.Cells[g.cols-1]; last.Attributes.Has(AttrWide) {
		*last = blankCell(last.Background)
	}
}

// DeleteChars removes n cells at the cursor, shifting the rest left.
func (g *Grid) DeleteChars(n int) {
	line := g.lines[g.cursor.Row]
	col := g.col()
	n = min(n, g.cols-col)
	if n <= 0 {
		return
	}
	line.splitWide(col)
	if col+n < g.cols {
		line.splitWide(col + n)
	}
	copy(line.Cells[col:], line.Cells[col+n:])
	for i := g.cols - n; i < g.cols; i++ {
		line.Cells[i] = blankCell(g.bg)
	}
}

// InsertLines inserts n blank lines at the cursor inside the scroll region.
func (g *Grid) InsertLines(n int) {
	if g.cursor.Row < g.scrollTop || g.cursor.Row > g.scrollBottom {
		return
	}
	saved := g.scrollTop
	g.scrollTop = g.cursor.Row
	g.ScrollDown(n)
	g.scrollTop = saved
	g.cursor.Col = 0
}

// DeleteLines deletes n lines at the cursor inside the scroll region.
func (g *Grid) DeleteLines(n int) {
	if g.cursor.Row < g.scrollTop || g.cursor.Row > g.scrollBottom {
		return
	}
	top, bottom := g.cursor.Row, g.scrollBottom
	n = min(n, bottom-top+1)
	copy(g.lines[top:], g.lines[top+n:bottom+1])
	for y := bottom - n + 1; y <= bottom; y++ {
		g.lines[y] = g.blankLine()
	}
	g.cursor.Col = 0
}

// SetForeground sets the pen foreground.
func (g *Grid) SetForeground(c Color) { g.fg = c }

// SetBackground sets the pen background.
func (g *Grid) SetBackground(c Color) { g.bg = c }

// AddAttribute adds attributes to the pen.
func (g *Grid) AddAttribute(a CellAttributes) { g.attrs |= a & attrStyle }

// RemoveAttribute removes attributes from the pen.
func (g *Grid) RemoveAttribute(a CellAttributes) { g.attrs &^= a }

// ResetAttributes resets the pen to defaults.
func (g *Grid) ResetAttributes() {
	g.fg = DefaultForeground
	g.bg = DefaultBackground
	g.attrs = AttrNone
}

// Pen returns the current pen colors and attributes.
func (g *Grid) Pen() (fg, bg Color, attrs CellAttributes) {
	return g.fg, g.bg, g.attrs
}

// SaveCursor saves cursor position, pen, origin mode and charsets (DECSC).
func (g *Grid) SaveCursor() {
	s := &g.saved
	if g.alt {
		s = &g.altSaved
	}
	*s = savedCursor{
		cursor:     g.cursor,
		fg:         g.fg,
		bg:         g.bg,
		attrs:      g.attrs,
		originMode: g.originMode,
		charsets:   g.charsets,
		gl:         g.gl,
		valid:      true,
	}
}

// RestoreCursor restores the state saved by SaveCursor (DECRC). Without a
// saved state it homes the cursor and resets the pen.
func (g *Grid) RestoreCursor() {
	s := g.saved
	if g.alt {
		s = g.altSaved
	}
	if !s.valid {
		g.cursor = Point{}
		g.ResetAttributes()
		g.originMode = false
		return
	}
	g.cursor.Row = clamp(s.cursor.Row, 0, g.rows-1)
	g.cursor.Col = clamp(s.cursor.Col, 0, g.cols)
	g.fg, g.bg, g.attrs = s.fg, s.bg, s.attrs
	g.originMode = s.originMode
	g.charsets = s.charsets
	g.gl = s.gl
}

// SetCursorVisible shows or hides the cursor.
func (g *Grid) SetCursorVisible(visible bool) { g.cursorVisible = visible }

// SetCursorStyle sets the cursor shape.
func (g *Grid) SetCursorStyle(style CursorStyle) { g.cursorStyle = style }

// SetOriginMode sets DECOM and homes the cursor.
func (g *Grid) SetOriginMode(enabled bool) {
	g.originMode = enabled
	g.MoveCursor(0, 0)
}

// SetAutoWrap sets DECAWM.
func (g *Grid) SetAutoWrap(enabled bool) { g.autoWrap = enabled }

// SetInsertMode sets IRM.
func (g *Grid) SetInsertMode(enabled bool) { g.insertMode = enabled }

// SetTitle records the window title.
func (g *Grid) SetTitle(title string) { g.title = title }

// DesignateCharset selects the character set for G0 (slot 0) or G1 (slot 1).
func (g *Grid) DesignateCharset(slot int, final byte) {
	if slot < 0 || slot > 1 {
		return
	}
	if final == '0' {
		g.charsets[slot] = charsetLineDrawing
	} else {
		g.charsets[slot] = charsetASCII
	}
}

// ShiftCharset invokes G0 (SI) or G1 (SO) into GL.
func (g *Grid) ShiftCharset(slot int) {
	if slot == 0 || slot == 1 {
		g.gl = slot
	}
}

// EnterAltScreen switches to a cleared alternate screen.
func (g *Grid) EnterAltScreen(saveCursor bool) {
	if g.alt {
		return
	}
	if saveCursor {
		g.SaveCursor()
	}
	g.main = g.lines
	g.lines = make([]*Line, g.rows)
	for i := range g.lines {
		g.lines[i] = NewLine(g.cols)
	}
	g.alt = true
	g.scrollOffset = 0
	g.lastLine = nil
}

// ExitAltScreen returns to the main screen.
func (g *Grid) ExitAltScreen(restoreCursor bool) {
	if !g.alt {
		return
	}
	g.lines = g.main
	g.main = nil
	g.alt = false
	g.lastLine = nil
	if restoreCursor {
		g.RestoreCursor()
	}
}

// Scroll moves the viewport by delta rows; positive scrolls back into
// history. The offset is clamped to [0, history length].
func (g *Grid) Scroll(delta int) {
	limit := g.history.Len()
	if g.alt {
		limit = 0
	}
	g.scrollOffset = clamp(g.scrollOffset+delta, 0, limit)
}

// ScrollToBottom returns the viewport to the live screen.
func (g *Grid) ScrollToBottom() {
	g.scrollOffset = 0
}

// Resize changes the grid dimensions. Shrinking columns truncates rows;
// shrinking rows moves top rows into history to keep the cursor on screen,
// and growing rows pulls them back.
func (g *Grid) Resize(cols, rows int) {
	cols = max(cols, 1)
	rows = max(rows, 1)
	if cols == g.cols && rows == g.rows {
		return
	}

	g.cols = cols
	for _, l := range g.lines {
		l.resize(cols)
	}
	for _, l := range g.main {
		l.resize(cols)
	}

	if g.alt {
		g.lines = fitRows(g.lines, rows, cols)
		g.main = fitRows(g.main, rows, cols)
	} else {
		g.resizeRows(rows)
	}
	g.rows = rows

	if g.cursor.Col >= cols {
		g.cursor.Col = cols - 1
	}
	g.cursor.Row = clamp(g.cursor.Row, 0, rows-1)
	for _, s := range []*savedCursor{&g.saved, &g.altSaved} {
		s.cursor.Row = clamp(s.cursor.Row, 0, rows-1)
		s.cursor.Col = clamp(s.cursor.Col, 0, cols-1)
	}

	g.scrollTop = 0
	g.scrollBottom = rows - 1
	g.scrollOffset = min(g.scrollOffset, g.history.Len())
	g.selection = Selection{}
	g.lastLine = nil
	g.resetTabStops()
}

func (g *Grid) resizeRows(rows int) {
	switch {
	case rows < g.rows:
		if excess := g.cursor.Row - (rows - 1); excess > 0 {
			for i := 0; i < excess; i++ {
				g.AppendRow(g.lines[i])
			}
			g.lines = g.lines[excess:]
			g.cursor.Row -= excess
		}
		g.lines = g.lines[:rows:rows]
	case rows > g.rows:
		pull := min(rows-g.rows, g.history.Len())
		lines := make([]*Line, pull, rows)
		for i := pull - 1; i >= 0; i-- {
			l := g.history.PopNewest()
			l.resize(g.cols)
			lines[i] = l
		}
		g.scrolled -= pull
		g.cursor.Row += pull
		lines = append(lines, g.lines...)
		for len(lines) < rows {
			lines = append(lines, NewLine(g.cols))
		}
		g.lines = lines
	}
}

// fitRows truncates or pads a row slice without touching history.
func fitRows(lines []*Line, rows, cols int) []*Line {
	if lines == nil {
		return nil
	}
	if len(lines) > rows {
		return lines[:rows:rows]
	}
	for len(lines) < rows {
		lines = append(lines, NewLine(cols))
	}
	return lines
}

// Reset performs a full reset (RIS). Scrollback is kept.
func (g *Grid) Reset() {
	g.ExitAltScreen(false)
	for _, l := range g.lines {
		l.Clear(DefaultBackground)
	}
	g.resetState()
	g.scrollOffset = 0
	g.selection = Selection{}
}

// AbsoluteRow converts a viewport row into an absolute row.
func (g *Grid) AbsoluteRow(viewRow int) int {
	return g.scrolled - g.scrollOffset + viewRow
}

// lineAt returns the row at an absolute index, or nil if it is no longer
// retained.
func (g *Grid) lineAt(abs int) *Line {
	i := abs - (g.scrolled - g.history.Len())
	if i < 0 {
		return nil
	}
	if i < g.history.Len() {
		// History rows keep the width they were pushed with until read.
		l := g.history.Line(i)
		if len(l.Cells) != g.cols {
			l.resize(g.cols)
		}
		return l
	}
	i -= g.history.Len()
	if i < len(g.lines) {
		return g.lines[i]
	}
	return nil
}

// viewLine returns the row shown at viewport row r.
func (g *Grid) viewLine(r int) *Line {
	return g.lineAt(g.AbsoluteRow(r))
}

// Text returns the visible screen as text, one line per row, trailing blanks
// trimmed.
func (g *Grid) Text() string {
	var sb strings.Builder
	for y, l := range g.lines {
		if y > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(l.String())
	}
	return sb.String()
}

// decGraphics holds the DEC special graphics glyphs for 0x5f..0x7e.
var decGraphics = []rune(" ◆▒␉␌␍␊°±␤␋┘┐┌└┼⎺⎻─⎼⎽├┤┴┬│≤≥π≠£·")

// lineDrawing maps DEC special graphics to Unicode box drawing.
func lineDrawing(r rune) rune {
	if r < 0x5f || r > 0x7e {
		return r
	}
	return decGraphics[r-0x5f]
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
