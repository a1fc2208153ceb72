package viewer

import (
	"sync"

	"github.com/dshills/khafre/internal/input"
	"github.com/dshills/khafre/internal/terminal"
)

type selCall struct {
	mode     terminal.SelectionMode
	row, col int
}

// fakeSession records what the viewer asks of a session.
type fakeSession struct {
	mu      sync.Mutex
	snap    *terminal.Snapshot
	updates chan terminal.Update
	done    chan struct{}

	keys     []input.KeyEvent
	mice     []input.MouseEvent
	pastes   []string
	focus    []bool
	resizes  [][2]int
	scrolls  []int
	starts   []selCall
	moves    []selCall
	cleared  int
	selText  string
	selReads int
}

func newFakeSession(snap *terminal.Snapshot) *fakeSession {
	return &fakeSession{
		snap:    snap,
		updates: make(chan terminal.Update, 4),
		done:    make(chan struct{}),
	}
}

func (f *fakeSession) Subscribe() (<-chan terminal.Update, func()) {
	return f.updates, func() {}
}

func (f *fakeSession) Snapshot() *terminal.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeSession) Resize(cols, rows int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resizes = append(f.resizes, [2]int{cols, rows})
	return nil
}

func (f *fakeSession) SendKey(ev input.KeyEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, ev)
	return nil
}

func (f *fakeSession) SendMouse(ev input.MouseEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mice = append(f.mice, ev)
	return nil
}

func (f *fakeSession) Paste(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pastes = append(f.pastes, text)
	return nil
}

func (f *fakeSession) Focus(focused bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.focus = append(f.focus, focused)
	return nil
}

func (f *fakeSession) Scroll(delta int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scrolls = append(f.scrolls, delta)
}

func (f *fakeSession) StartSelection(mode terminal.SelectionMode, row, col int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, selCall{mode, row, col})
}

func (f *fakeSession) UpdateSelection(row, col int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moves = append(f.moves, selCall{row: row, col: col})
}

func (f *fakeSession) ClearSelection() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
}

func (f *fakeSession) SelectionText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selReads++
	return f.selText
}

func (f *fakeSession) Done() <-chan struct{} { return f.done }

func (f *fakeSession) resizeCalls() [][2]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][2]int(nil), f.resizes...)
}
