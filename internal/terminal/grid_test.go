package terminal

import (
	"fmt"
	"strings"
	"testing"
)

// run feeds s into a fresh grid of the given size.
func run(cols, rows int, s string) *Grid {
	g := NewGrid(cols, rows, 0)
	NewInterpreter(g).Feed([]byte(s))
	return g
}

func TestNewHistory(t *testing.T) {
	h := NewHistory(100)
	if h.Len() != 0 {
		t.Errorf("expected empty history, got %d lines", h.Len())
	}
	if h.Cap() != 100 {
		t.Errorf("Cap() = %d, want 100", h.Cap())
	}
	if NewHistory(1 << 20).Cap() != MaxScrollback {
		t.Errorf("capacity not capped at %d", MaxScrollback)
	}
}

func TestHistoryEvictsOldest(t *testing.T) {
	h := NewHistory(5)
	for i := 0; i < 10; i++ {
		l := NewLine(1)
		l.Cells[0].Content = string(rune('A' + i))
		evicted := h.Push(l)
		if want := i >= 5; evicted != want {
			t.Errorf("push %d evicted = %v, want %v", i, evicted, want)
		}
	}

	if h.Len() != 5 {
		t.Errorf("expected 5 lines (max), got %d", h.Len())
	}
	if got := h.Line(0).String(); got != "F" {
		t.Errorf("oldest = %q, want F", got)
	}
	if got := h.Line(4).String(); got != "J" {
		t.Errorf("newest = %q, want J", got)
	}
	if h.Line(5) != nil || h.Line(-1) != nil {
		t.Error("out of range Line should be nil")
	}

	if got := h.PopNewest().String(); got != "J" {
		t.Errorf("PopNewest = %q, want J", got)
	}
	if h.Len() != 4 {
		t.Errorf("Len after pop = %d, want 4", h.Len())
	}

	h.Clear()
	if h.Len() != 0 || h.PopNewest() != nil {
		t.Error("history not empty after Clear")
	}
}

func TestScrollbackCapAndOrder(t *testing.T) {
	var sb strings.Builder
	const total = 12000
	for i := 0; i < total; i++ {
		fmt.Fprintf(&sb, "%d\r\n", i)
	}
	g := run(10, 2, sb.String())

	h := g.History()
	if h.Len() != MaxScrollback {
		t.Fatalf("history length = %d, want %d", h.Len(), MaxScrollback)
	}
	// total-1 rows scrolled off; the oldest ones were evicted first.
	if got, want := h.Line(0).String(), fmt.Sprint(total-1-MaxScrollback); got != want {
		t.Errorf("oldest retained = %q, want %q", got, want)
	}
	if got, want := h.Line(MaxScrollback-1).String(), fmt.Sprint(total-2); got != want {
		t.Errorf("newest retained = %q, want %q", got, want)
	}
	if got := g.Line(0).String(); got != fmt.Sprint(total-1) {
		t.Errorf("screen row 0 = %q, want %q", got, fmt.Sprint(total-1))
	}
}

func TestCursorBackAndOverwrite(t *testing.T) {
	g := run(80, 24, "A\x1b[2DB")

	if got := g.Line(0).String(); got != "B" {
		t.Errorf("row 0 = %q, want %q", got, "B")
	}
	if c := g.Cursor(); c.Row != 0 || c.Col != 1 {
		t.Errorf("cursor = %+v, want (0,1)", c)
	}
}

func TestPrintAutoWrap(t *testing.T) {
	g := run(5, 3, "abcdefg")

	if got := g.Line(0).String(); got != "abcde" {
		t.Errorf("row 0 = %q, want abcde", got)
	}
	if !g.Line(0).Wrapped {
		t.Error("row 0 should be marked wrapped")
	}
	if got := g.Line(1).String(); got != "fg" {
		t.Errorf("row 1 = %q, want fg", got)
	}
}

func TestPendingWrap(t *testing.T) {
	g := run(5, 3, "abcde")
	if c := g.Cursor(); c.Row != 0 || c.Col != 5 {
		t.Errorf("cursor after filling row = %+v, want pending wrap at col 5", c)
	}

	// A carriage return cancels the pending wrap.
	g = run(5, 3, "abcde\rX")
	if got := g.Line(0).String(); got != "Xbcde" {
		t.Errorf("row 0 = %q, want Xbcde", got)
	}
}

func TestNoAutoWrap(t *testing.T) {
	g := run(5, 3, "\x1b[?7labcdefg")
	if got := g.Line(0).String(); got != "abcdg" {
		t.Errorf("row 0 = %q, want abcdg", got)
	}
	if got := g.Line(1).String(); got != "" {
		t.Errorf("row 1 = %q, want empty", got)
	}
}

func TestWideCharWrapsAtLastColumn(t *testing.T) {
	g := run(10, 3, "123456789世")

	if got := g.Line(0).String(); got != "123456789" {
		t.Errorf("row 0 = %q, want 123456789", got)
	}
	last := g.Cell(0, 9)
	if last.Content != "" || last.Attributes.Has(AttrWide) {
		t.Errorf("last column of row 0 = %+v, want blank", last)
	}
	if !g.Line(0).Wrapped {
		t.Error("row 0 should be marked wrapped")
	}

	first := g.Cell(1, 0)
	if first.Content != "世" || !first.Attributes.Has(AttrWide) {
		t.Errorf("row 1 col 0 = %+v, want wide 世", first)
	}
	if !g.Cell(1, 1).Attributes.Has(AttrWideContinuation) {
		t.Error("row 1 col 1 should be a wide continuation")
	}
	if c := g.Cursor(); c.Row != 1 || c.Col != 2 {
		t.Errorf("cursor = %+v, want (1,2)", c)
	}
}

func TestOverwriteHalfOfWideChar(t *testing.T) {
	g := run(10, 1, "世\x1b[1;2Hx")

	if c := g.Cell(0, 0); c.Content != "" || c.Attributes.Has(AttrWide) {
		t.Errorf("col 0 = %+v, want blanked", c)
	}
	if c := g.Cell(0, 1); c.Content != "x" || c.Attributes.Has(AttrWideContinuation) {
		t.Errorf("col 1 = %+v, want plain x", c)
	}
}

func TestCombiningCharacters(t *testing.T) {
	g := run(10, 1, "e\u0301x")

	if got := g.Cell(0, 0).Content; got != "e\u0301" {
		t.Errorf("col 0 = %q, want e + combining acute", got)
	}
	if got := g.Cell(0, 1).Content; got != "x" {
		t.Errorf("col 1 = %q, want x", got)
	}
	if c := g.Cursor(); c.Col != 2 {
		t.Errorf("cursor col = %d, want 2", c.Col)
	}
}

func TestCombiningMarkNeedsPrecedingCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  [][2]int // cells that must hold exactly their base character
	}{
		{"after cursor position", "a\x1b[3;5H\u0301", [][2]int{{0, 0}}},
		{"after carriage return", "ab\r\u0301", [][2]int{{0, 0}, {0, 1}}},
		{"after cursor back", "ab\x1b[D\u0301", [][2]int{{0, 0}, {0, 1}}},
		{"after scrolling", "a\r\n\r\n\r\n\u0301", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := run(10, 3, tt.input)
			for _, rc := range tt.want {
				if got := g.Cell(rc[0], rc[1]).Content; len([]rune(got)) != 1 {
					t.Errorf("cell %v = %q, want a single base character", rc, got)
				}
			}
			for r := 0; r < g.Rows(); r++ {
				for c := 0; c < g.Cols(); c++ {
					if got := g.Cell(r, c).Content; got == "\u0301" {
						t.Errorf("cell (%d,%d) holds a lone combining mark", r, c)
					}
				}
			}
			if g.history.Len() > 0 {
				if got := g.history.Line(0).String(); got != "a" {
					t.Errorf("history row = %q, want a", got)
				}
			}
		})
	}

	// A mark right after a wide character still joins it.
	g := run(10, 1, "世\u0301")
	if got := g.Cell(0, 0).Content; got != "世\u0301" {
		t.Errorf("col 0 = %q, want wide char + combining acute", got)
	}
}

func TestEraseAndEdit(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"erase to end of line", "abcdef\x1b[1;3H\x1b[K", "ab"},
		{"erase to start of line", "abcdef\x1b[1;3H\x1b[1K", "   def"},
		{"erase chars", "abcdef\x1b[1;2H\x1b[2X", "a  def"},
		{"delete chars", "abcdef\x1b[1;3H\x1b[2P", "abef"},
		{"insert chars", "abcdef\x1b[1;3H\x1b[2@", "ab  cdef"},
		{"insert mode", "abc\x1b[1;2H\x1b[4hX", "aXbc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := run(10, 2, tt.input)
			if got := g.Line(0).String(); got != tt.want {
				t.Errorf("row 0 = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEraseInDisplay(t *testing.T) {
	g := run(5, 3, "aaa\r\nbbb\r\nccc\x1b[2;2H\x1b[J")
	if got := g.Text(); got != "aaa\nb\n" {
		t.Errorf("ED 0 text = %q", got)
	}

	g = run(5, 3, "aaa\r\nbbb\r\nccc\x1b[2;2H\x1b[1J")
	if got := g.Text(); got != "\n  b\nccc" {
		t.Errorf("ED 1 text = %q", got)
	}

	g = run(5, 2, "1\r\n2\r\n3\r\n4\x1b[2J")
	if got := g.Text(); got != "\n" {
		t.Errorf("ED 2 text = %q", got)
	}
	if g.History().Len() != 2 {
		t.Errorf("ED 2 history = %d, want 2 (kept)", g.History().Len())
	}
	NewInterpreter(g).Feed([]byte("\x1b[3J"))
	if g.History().Len() != 0 {
		t.Errorf("ED 3 history = %d, want 0", g.History().Len())
	}
}

func TestInsertDeleteLines(t *testing.T) {
	g := run(5, 4, "1\r\n2\r\n3\r\n4\x1b[2;1H\x1b[L")
	if got := g.Text(); got != "1\n\n2\n3" {
		t.Errorf("IL text = %q", got)
	}

	g = run(5, 4, "1\r\n2\r\n3\r\n4\x1b[2;1H\x1b[2M")
	if got := g.Text(); got != "1\n4\n\n" {
		t.Errorf("DL text = %q", got)
	}
}

func TestScrollRegion(t *testing.T) {
	// Region rows 2-3; a line feed at the bottom margin scrolls only the region.
	g := run(5, 4, "1\r\n2\r\n3\r\n4\x1b[2;3r\x1b[3;1H\nX")
	if got := g.Text(); got != "1\n3\nX\n4" {
		t.Errorf("text = %q, want %q", got, "1\n3\nX\n4")
	}
	if g.History().Len() != 0 {
		t.Errorf("history = %d, want 0 (region not at top)", g.History().Len())
	}
}

func TestReverseIndexAtTop(t *testing.T) {
	g := run(5, 3, "a\r\nb\x1b[H\x1bM")
	if got := g.Text(); got != "\na\nb" {
		t.Errorf("text = %q, want %q", got, "\na\nb")
	}
}

func TestTabs(t *testing.T) {
	g := run(20, 1, "a\tb")
	if got := g.Cell(0, 8).Content; got != "b" {
		t.Errorf("col 8 = %q, want b", got)
	}

	g = run(20, 1, "\x1b[3g\x1b[5G\x1bH\x1b[1G\tx")
	if got := g.Cell(0, 4).Content; got != "x" {
		t.Errorf("custom tab stop: col 4 = %q, want x", got)
	}
}

func TestSaveRestoreCursor(t *testing.T) {
	g := run(10, 5, "\x1b[3;4H\x1b[1m\x1b7\x1b[H\x1b[0m\x1b8X")
	if c := g.Cell(2, 3); c.Content != "X" || !c.Attributes.Has(AttrBold) {
		t.Errorf("cell (2,3) = %+v, want bold X", c)
	}
}

func TestOriginMode(t *testing.T) {
	g := run(10, 5, "\x1b[2;4r\x1b[?6h\x1b[1;1HX")
	if got := g.Cell(1, 0).Content; got != "X" {
		t.Errorf("origin mode home: cell (1,0) = %q, want X", got)
	}
}

func TestAltScreen(t *testing.T) {
	g := NewGrid(10, 3, 0)
	in := NewInterpreter(g)
	in.Feed([]byte("main\x1b[?1049h"))

	if !g.AltScreen() {
		t.Fatal("expected alternate screen")
	}
	if got := g.Line(0).String(); got != "" {
		t.Errorf("alt screen row 0 = %q, want empty", got)
	}

	in.Feed([]byte("\x1b[Halt\r\n1\r\n2\r\n3\r\n4"))
	if g.History().Len() != 0 {
		t.Errorf("alt screen pushed %d rows to history", g.History().Len())
	}

	in.Feed([]byte("\x1b[?1049l"))
	if g.AltScreen() {
		t.Fatal("expected main screen")
	}
	if got := g.Line(0).String(); got != "main" {
		t.Errorf("main row 0 = %q, want main", got)
	}
	if c := g.Cursor(); c.Row != 0 || c.Col != 4 {
		t.Errorf("restored cursor = %+v, want (0,4)", c)
	}
}

func TestLineDrawingCharset(t *testing.T) {
	g := run(10, 1, "\x1b(0qx\x1b(Bq")
	if got := g.Line(0).String(); got != "─│q" {
		t.Errorf("row 0 = %q, want %q", got, "─│q")
	}
}

func TestResizeClampsCursor(t *testing.T) {
	g := run(80, 24, "\x1b[10;61H")
	if c := g.Cursor(); c.Col != 60 {
		t.Fatalf("cursor col = %d, want 60", c.Col)
	}

	g.Resize(40, 24)
	if c := g.Cursor(); c.Col != 39 || c.Row != 9 {
		t.Errorf("cursor after resize = %+v, want (9,39)", c)
	}
	if g.Cols() != 40 || len(g.Line(0).Cells) != 40 {
		t.Errorf("cols = %d, line width = %d, want 40", g.Cols(), len(g.Line(0).Cells))
	}
}

func TestResizeTruncatesColumns(t *testing.T) {
	g := run(10, 2, "abcdefghij")
	g.Resize(4, 2)
	if got := g.Line(0).String(); got != "abcd" {
		t.Errorf("row 0 = %q, want abcd", got)
	}

	// A wide character cut in half is blanked.
	g = run(10, 1, "abc世")
	g.Resize(4, 1)
	if got := g.Line(0).String(); got != "abc" {
		t.Errorf("row 0 = %q, want abc", got)
	}
	if g.Cell(0, 3).Attributes.Has(AttrWide) {
		t.Error("half of a wide character survived truncation")
	}
}

func TestResizeTruncatesScrollback(t *testing.T) {
	g := run(10, 2, "abcdefgh世\r\nx\r\ny")
	if g.history.Len() != 1 {
		t.Fatalf("history len = %d, want 1", g.history.Len())
	}

	g.Resize(9, 2)
	g.Scroll(1)
	snap := g.Snapshot()

	if got := snap.Line(0); got != "abcdefgh" {
		t.Errorf("scrolled row 0 = %q, want abcdefgh", got)
	}
	for r, row := range snap.Cells {
		if len(row) != 9 {
			t.Fatalf("row %d has %d cells, want 9", r, len(row))
		}
		if last := row[len(row)-1]; last.Attributes.Has(AttrWide) {
			t.Errorf("row %d ends with a wide cell missing its continuation", r)
		}
	}
}

func TestResizeRowsUsesHistory(t *testing.T) {
	g := run(10, 3, "a\r\nb\r\nc\r\nd\r\ne")
	if got := g.Text(); got != "c\nd\ne" {
		t.Fatalf("text = %q, want c/d/e", got)
	}
	if g.History().Len() != 2 {
		t.Fatalf("history = %d, want 2", g.History().Len())
	}

	g.Resize(10, 5)
	if got := g.Text(); got != "a\nb\nc\nd\ne" {
		t.Errorf("grown text = %q, want a..e", got)
	}
	if g.History().Len() != 0 {
		t.Errorf("history after grow = %d, want 0", g.History().Len())
	}
	if c := g.Cursor(); c.Row != 4 || c.Col != 1 {
		t.Errorf("cursor = %+v, want (4,1)", c)
	}

	g.Resize(10, 2)
	if got := g.Text(); got != "d\ne" {
		t.Errorf("shrunk text = %q, want d/e", got)
	}
	if g.History().Len() != 3 {
		t.Errorf("history after shrink = %d, want 3", g.History().Len())
	}
	if c := g.Cursor(); c.Row != 1 {
		t.Errorf("cursor row = %d, want 1", c.Row)
	}
}

func TestScrollViewport(t *testing.T) {
	g := run(10, 3, "a\r\nb\r\nc\r\nd\r\ne")

	g.Scroll(1)
	snap := g.Snapshot()
	if snap.ScrollOffset != 1 {
		t.Errorf("offset = %d, want 1", snap.ScrollOffset)
	}
	if got := snap.Text(); got != "b\nc\nd" {
		t.Errorf("scrolled text = %q, want b/c/d", got)
	}

	g.Scroll(100)
	if g.ScrollOffset() != 2 {
		t.Errorf("offset = %d, want clamp to 2", g.ScrollOffset())
	}
	g.Scroll(-100)
	if g.ScrollOffset() != 0 {
		t.Errorf("offset = %d, want clamp to 0", g.ScrollOffset())
	}
}

func TestScrollFollowsNewOutput(t *testing.T) {
	g := NewGrid(10, 3, 0)
	in := NewInterpreter(g)
	in.Feed([]byte("a\r\nb\r\nc\r\nd\r\ne"))

	g.Scroll(2)
	before := g.Snapshot().Text()
	in.Feed([]byte("\r\nf"))
	if got := g.Snapshot().Text(); got != before {
		t.Errorf("view moved while scrolled back: %q, want %q", got, before)
	}
	if g.ScrollOffset() != 3 {
		t.Errorf("offset = %d, want 3", g.ScrollOffset())
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	g := run(10, 2, "abc")
	snap := g.Snapshot()
	NewInterpreter(g).Feed([]byte("\rxyz"))

	if got := snap.Line(0); got != "abc" {
		t.Errorf("snapshot changed after grid update: %q", got)
	}
	if snap.Cursor.Col != 3 || !snap.CursorVisible {
		t.Errorf("snapshot cursor = %+v visible=%v", snap.Cursor, snap.CursorVisible)
	}
}

func TestSelectionText(t *testing.T) {
	g := run(10, 3, "hello world")
	g.StartSelection(SelectNormal, 0, 0)
	g.UpdateSelection(1, 0)
	if got := g.SelectionText(); got != "hello world" {
		t.Errorf("wrapped selection = %q, want %q", got, "hello world")
	}

	g = run(10, 3, "foo  \r\nbar")
	g.StartSelection(SelectLine, 1, 5)
	g.UpdateSelection(0, 2)
	if got := g.SelectionText(); got != "foo\nbar" {
		t.Errorf("line selection = %q, want %q", got, "foo\nbar")
	}

	g = run(10, 3, "abcd\r\nefgh")
	g.StartSelection(SelectBlock, 0, 1)
	g.UpdateSelection(1, 2)
	if got := g.SelectionText(); got != "bc\nfg" {
		t.Errorf("block selection = %q, want %q", got, "bc\nfg")
	}

	g.ClearSelection()
	if got := g.SelectionText(); got != "" {
		t.Errorf("cleared selection = %q", got)
	}
}

func TestSelectionSurvivesScroll(t *testing.T) {
	g := NewGrid(10, 2, 0)
	in := NewInterpreter(g)
	in.Feed([]byte("one\r\ntwo"))
	g.StartSelection(SelectLine, 0, 0)

	in.Feed([]byte("\r\nthree"))
	if got := g.SelectionText(); got != "one" {
		t.Errorf("selection after scroll = %q, want one", got)
	}
	snap := g.Snapshot()
	if snap.Selected(0, 0) {
		t.Error("row now showing 'two' should not be selected")
	}
}

func TestSelectionClearedOnResize(t *testing.T) {
	g := run(10, 3, "abc")
	g.StartSelection(SelectNormal, 0, 0)
	g.Resize(20, 3)
	if !g.Selection().IsEmpty() {
		t.Error("selection should be cleared by resize")
	}
}

func TestParseSelectionMode(t *testing.T) {
	tests := map[string]SelectionMode{
		"normal": SelectNormal,
		"LINE":   SelectLine,
		"block":  SelectBlock,
		"":       SelectNone,
	}
	for in, want := range tests {
		if got := ParseSelectionMode(in); got != want {
			t.Errorf("ParseSelectionMode(%q) = %v, want %v", in, got, want)
		}
	}
}
