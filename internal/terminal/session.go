package terminal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/dshills/khafre/internal/debounce"
	"github.com/dshills/khafre/internal/input"
)

const (
	// DefaultResizeWindow is how long resize requests are coalesced.
	DefaultResizeWindow = 100 * time.Millisecond

	readBufferSize   = 32 * 1024
	exitDrainTimeout = 250 * time.Millisecond
	wheelLines       = 3
	replyQueueSize   = 16
)

// Update is sent to subscribers after the screen changes. Events lists what
// happened since the subscriber's previous update; the slice is shared and
// must not be modified.
type Update struct {
	Snapshot *Snapshot
	Events   []Event
}

// Info summarizes a session for listings.
type Info struct {
	ID           string    `json:"id"`
	Shell        string    `json:"shell"`
	Dir          string    `json:"dir,omitempty"`
	Pid          int       `json:"pid"`
	Cols         int       `json:"cols"`
	Rows         int       `json:"rows"`
	Title        string    `json:"title,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

type winSize struct {
	cols, rows int
}

// Session is a shell running on a PTY together with the screen it draws.
//
// One reader goroutine feeds PTY output through an OutputBatcher into the
// interpreter. All grid access (output batches, input, resize, scrolling,
// selection) is serialized by mu, and snapshots are published in the order
// they were taken.
type Session struct {
	id      string
	shell   string
	dir     string
	created time.Time

	pty PTY
	log *slog.Logger

	mu      sync.Mutex // guards grid, interp, seq, replies
	grid    *Grid
	interp  *Interpreter
	seq     uint64
	replies []byte

	// replyQueue carries status replies to replyLoop so a child that is not
	// reading its input never stalls the reader.
	replyQueue chan []byte
	replyDone  chan struct{}

	batcher *OutputBatcher
	resizer *debounce.Coalescer[winSize]
	writeMu sync.Mutex

	// pubMu is taken before mu is released so publication follows
	// snapshot order.
	pubMu      sync.Mutex
	subs       map[int]chan Update
	nextSub    int
	subsClosed bool
	lagLog     rate.Sometimes

	lastActivity atomic.Int64
	exitCode     atomic.Int32
	closing      atomic.Bool

	ctx        context.Context
	cancel     context.CancelFunc
	readerDone chan struct{}
	done       chan struct{}
	closeOnce  sync.Once
	closeErr   error

	onEvent func(Event)
	onClose func(*Session)
}

type sessionConfig struct {
	id           string
	shell        string
	dir          string
	cols         int
	rows         int
	scrollback   int
	batchWindow  time.Duration
	resizeWindow time.Duration
	logger       *slog.Logger
	onEvent      func(Event)
	onClose      func(*Session)
}

// newSession wraps an already spawned PTY. The reader does not run until
// start is called.
func newSession(p PTY, cfg sessionConfig) *Session {
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	if cfg.resizeWindow <= 0 {
		cfg.resizeWindow = DefaultResizeWindow
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:         cfg.id,
		shell:      cfg.shell,
		dir:        cfg.dir,
		created:    time.Now(),
		pty:        p,
		log:        cfg.logger.With("session", cfg.id),
		subs:       make(map[int]chan Update),
		lagLog:     rate.Sometimes{Interval: 5 * time.Second},
		ctx:        ctx,
		cancel:     cancel,
		readerDone: make(chan struct{}),
		replyQueue: make(chan []byte, replyQueueSize),
		replyDone:  make(chan struct{}),
		done:       make(chan struct{}),
		onEvent:    cfg.onEvent,
		onClose:    cfg.onClose,
	}
	s.exitCode.Store(-1)
	s.touch()

	s.grid = NewGrid(cfg.cols, cfg.rows, cfg.scrollback)
	s.interp = NewInterpreter(s.grid)
	s.interp.SetResponder(func(b []byte) {
		s.replies = append(s.replies, b...)
	})
	s.batcher = NewOutputBatcher(cfg.batchWindow, DefaultBatchBytes, s.applyBatch)
	s.resizer = debounce.NewCoalescer(cfg.resizeWindow, s.applyResize)
	return s
}

func (s *Session) start() {
	go s.readLoop()
	go s.replyLoop()
	go s.watch()
}

// replyLoop writes status replies (DSR, DA) queued by applyBatch.
func (s *Session) replyLoop() {
	defer close(s.replyDone)
	for {
		select {
		case <-s.ctx.Done():
			return
		case b := <-s.replyQueue:
			if _, err := s.writePTY(b); err != nil {
				s.log.Debug("status reply not delivered", "error", err)
			}
		}
	}
}

// readLoop is the only goroutine reading the PTY and driving the batcher.
func (s *Session) readLoop() {
	defer close(s.readerDone)
	defer s.batcher.Flush()

	buf := make([]byte, readBufferSize)
	for s.ctx.Err() == nil {
		ready, err := s.pty.WaitReadable(s.batcher.Remaining(time.Now()))
		if err != nil {
			s.readFailed(err)
			return
		}
		if ready {
			n, err := s.pty.ReadNonblocking(buf)
			if n > 0 {
				s.batcher.Add(buf[:n], time.Now())
			}
			if err != nil {
				s.readFailed(err)
				return
			}
		}
		if s.batcher.Due(time.Now()) {
			s.batcher.Flush()
		}
	}
}

func (s *Session) readFailed(err error) {
	if errors.Is(err, ErrSessionClosed) {
		s.log.Debug("pty hung up")
		return
	}
	s.log.Warn("pty read failed", "error", err)
}

// watch tears the session down once the reader stops or the child exits.
func (s *Session) watch() {
	select {
	case <-s.readerDone:
	case <-s.pty.Done():
		// Let the reader drain what the child wrote before exiting.
		select {
		case <-s.readerDone:
		case <-time.After(exitDrainTimeout):
		}
	}
	_ = s.Close()
}

func (s *Session) applyBatch(chunk []byte) {
	s.mu.Lock()
	s.interp.Feed(chunk)
	events := s.interp.DrainEvents()
	for i := range events {
		events[i].SessionID = s.id
	}
	replies := s.replies
	s.replies = nil
	s.commitLocked(events)

	s.touch()
	s.forward(events)
	if len(replies) > 0 {
		select {
		case s.replyQueue <- replies:
		default:
			s.log.Debug("status reply dropped, child not reading input")
		}
	}
}

// commitLocked snapshots the grid and publishes it. It must be called with
// mu held and releases it.
func (s *Session) commitLocked(events []Event) {
	snap := s.grid.Snapshot()
	s.seq++
	snap.Seq = s.seq
	s.pubMu.Lock()
	s.mu.Unlock()
	defer s.pubMu.Unlock()
	s.publishLocked(snap, events)
}

// publishLocked delivers an update to every subscriber without blocking. An
// unread update is replaced and its events carried forward. Requires pubMu.
func (s *Session) publishLocked(snap *Snapshot, events []Event) {
	if s.subsClosed {
		return
	}
	for _, ch := range s.subs {
		u := Update{Snapshot: snap, Events: events}
		select {
		case ch <- u:
			continue
		default:
		}
		select {
		case old := <-ch:
			if len(old.Events) > 0 {
				u.Events = append(append([]Event(nil), old.Events...), events...)
			}
		default:
		}
		s.lagLog.Do(func() {
			s.log.Debug("subscriber lagging, pending update replaced")
		})
		ch <- u
	}
}

func (s *Session) forward(events []Event) {
	if s.onEvent == nil {
		return
	}
	for _, ev := range events {
		s.onEvent(ev)
	}
}

func (s *Session) touch() {
	s.lastActivity.Store(time.Now().UnixNano())
}

func (s *Session) writePTY(p []byte) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.pty.Write(p)
}

// Subscribe returns a channel of updates, primed with the current screen.
// The channel holds one pending update and is closed when the session ends
// or cancel is called.
func (s *Session) Subscribe() (<-chan Update, func()) {
	ch := make(chan Update, 1)

	s.mu.Lock()
	snap := s.grid.Snapshot()
	snap.Seq = s.seq
	s.pubMu.Lock()
	s.mu.Unlock()
	defer s.pubMu.Unlock()

	if s.subsClosed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- Update{Snapshot: snap}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.pubMu.Lock()
			defer s.pubMu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// Write sends input to the child and returns the view to the live screen.
func (s *Session) Write(p []byte) (int, error) {
	if s.closing.Load() {
		return 0, ErrSessionClosed
	}
	s.mu.Lock()
	if s.grid.ScrollOffset() != 0 {
		s.grid.ScrollToBottom()
		s.commitLocked(nil)
	} else {
		s.mu.Unlock()
	}

	n, err := s.writePTY(p)
	if n > 0 {
		s.touch()
	}
	if err != nil && !errors.Is(err, ErrSessionClosed) {
		s.log.Warn("pty write failed", "error", err)
	}
	return n, err
}

// Resize requests a new window size. Requests are coalesced and only the
// last one within the resize window is applied.
func (s *Session) Resize(cols, rows int) error {
	if !validSize(cols, rows) {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, cols, rows)
	}
	if s.closing.Load() || !s.resizer.Submit(winSize{cols: cols, rows: rows}) {
		return ErrSessionClosed
	}
	return nil
}

// FlushResize applies a pending resize immediately.
func (s *Session) FlushResize() {
	s.resizer.Flush()
}

func (s *Session) applyResize(sz winSize) {
	s.mu.Lock()
	if err := s.pty.Resize(sz.cols, sz.rows); err != nil {
		s.mu.Unlock()
		if !errors.Is(err, ErrSessionClosed) {
			s.log.Warn("resize failed", "cols", sz.cols, "rows", sz.rows, "error", err)
		}
		return
	}
	s.grid.Resize(sz.cols, sz.rows)
	s.commitLocked(nil)
	s.log.Debug("resized", "cols", sz.cols, "rows", sz.rows)
}

// Snapshot returns a copy of the current screen.
func (s *Session) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.grid.Snapshot()
	snap.Seq = s.seq
	return snap
}

// Size returns the applied window size.
func (s *Session) Size() (cols, rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid.Cols(), s.grid.Rows()
}

// Scroll moves the viewport delta rows into (positive) or out of history.
func (s *Session) Scroll(delta int) {
	s.mu.Lock()
	before := s.grid.ScrollOffset()
	s.grid.Scroll(delta)
	if s.grid.ScrollOffset() == before {
		s.mu.Unlock()
		return
	}
	s.commitLocked(nil)
}

// ScrollToBottom returns the viewport to the live screen.
func (s *Session) ScrollToBottom() {
	s.Scroll(-MaxScrollback - 1)
}

// StartSelection begins a selection at a viewport position.
func (s *Session) StartSelection(mode SelectionMode, row, col int) {
	s.mu.Lock()
	s.grid.StartSelection(mode, row, col)
	s.commitLocked(nil)
}

// UpdateSelection moves the selection head to a viewport position.
func (s *Session) UpdateSelection(row, col int) {
	s.mu.Lock()
	s.grid.UpdateSelection(row, col)
	s.commitLocked(nil)
}

// ClearSelection removes the selection.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	if s.grid.Selection().IsEmpty() {
		s.mu.Unlock()
		return
	}
	s.grid.ClearSelection()
	s.commitLocked(nil)
}

// SelectionText returns the selected text.
func (s *Session) SelectionText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid.SelectionText()
}

func (s *Session) modes() input.Modes {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid.Modes()
}

// SendKey encodes a key event for the current terminal modes and writes it.
func (s *Session) SendKey(ev input.KeyEvent) error {
	b := input.EncodeKey(ev, s.modes())
	if len(b) == 0 {
		return nil
	}
	_, err := s.Write(b)
	return err
}

// SendMouse reports a mouse event to the application when it enabled mouse
// tracking. Otherwise the wheel scrolls the viewport.
func (s *Session) SendMouse(ev input.MouseEvent) error {
	m := s.modes()
	if m.Mouse == input.MouseNone {
		switch ev.Button {
		case input.MouseWheelUp:
			s.Scroll(wheelLines)
		case input.MouseWheelDown:
			s.Scroll(-wheelLines)
		}
		return nil
	}
	b := input.EncodeMouse(ev, m)
	if len(b) == 0 {
		return nil
	}
	_, err := s.Write(b)
	return err
}

// Paste writes text as a paste, bracketed if the application asked for it.
func (s *Session) Paste(text string) error {
	if text == "" {
		return nil
	}
	_, err := s.Write(input.EncodePaste(text, s.modes()))
	return err
}

// Focus reports a focus change when the application enabled focus events.
func (s *Session) Focus(focused bool) error {
	b := input.EncodeFocus(focused, s.modes())
	if b == nil {
		return nil
	}
	_, err := s.Write(b)
	return err
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Shell returns the program the session runs.
func (s *Session) Shell() string { return s.shell }

// Dir returns the initial working directory.
func (s *Session) Dir() string { return s.dir }

// CreatedAt returns when the session was spawned.
func (s *Session) CreatedAt() time.Time { return s.created }

// Pid returns the child process ID.
func (s *Session) Pid() int { return s.pty.Pid() }

// LastActivity returns when output was last applied or input last written.
func (s *Session) LastActivity() time.Time {
	return time.Unix(0, s.lastActivity.Load())
}

// Title returns the window title set by the application.
func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid.Title()
}

// ExitCode returns the child's exit status after the session ended, or -1.
func (s *Session) ExitCode() int { return int(s.exitCode.Load()) }

// Done is closed once the session has been torn down.
func (s *Session) Done() <-chan struct{} { return s.done }

// Info returns a summary of the session.
func (s *Session) Info() Info {
	s.mu.Lock()
	cols, rows, title := s.grid.Cols(), s.grid.Rows(), s.grid.Title()
	s.mu.Unlock()
	return Info{
		ID:           s.id,
		Shell:        s.shell,
		Dir:          s.dir,
		Pid:          s.Pid(),
		Cols:         cols,
		Rows:         rows,
		Title:        title,
		CreatedAt:    s.created,
		LastActivity: s.LastActivity(),
	}
}

// Close stops the reader, terminates the child and releases the PTY. The
// reader has exited before the descriptor is closed. Close is idempotent
// and returns once teardown is complete.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.teardown()
	})
	return s.closeErr
}

func (s *Session) teardown() error {
	s.closing.Store(true)
	s.cancel()
	s.pty.Interrupt()
	<-s.readerDone

	s.resizer.Stop()
	err := s.pty.Close()
	<-s.replyDone
	code := s.pty.ExitCode()
	s.exitCode.Store(int32(code))

	exit := Event{Kind: EventExit, SessionID: s.id, ExitCode: code, Time: time.Now()}
	s.mu.Lock()
	s.commitLocked([]Event{exit})

	s.pubMu.Lock()
	s.subsClosed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.pubMu.Unlock()

	s.forward([]Event{exit})
	if s.onClose != nil {
		s.onClose(s)
	}
	close(s.done)
	s.log.Info("session closed", "exit_code", code)
	return err
}
