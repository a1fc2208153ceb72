package terminal

import (
	"bytes"
	"sync"
	"time"
)

// fakePTY is an in-memory PTY. Output queued with emit is returned by
// ReadNonblocking; input written by the session is recorded.
type fakePTY struct {
	opts PTYOptions

	mu         sync.Mutex
	out        []byte
	written    bytes.Buffer
	resizes    []winSize
	hungUp     bool
	closed     bool
	closeCalls int
	exitCode   int
	stall      chan struct{}

	wake chan struct{}
	done chan struct{}
}

func newFakePTY(opts PTYOptions) *fakePTY {
	return &fakePTY{
		opts:     opts,
		exitCode: -1,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

func (f *fakePTY) notify() {
	select {
	case f.wake <- struct{}{}:
	default:
	}
}

// emit queues output as if the child had written it.
func (f *fakePTY) emit(s string) {
	f.mu.Lock()
	f.out = append(f.out, s...)
	f.mu.Unlock()
	f.notify()
}

// exit simulates the child exiting with code.
func (f *fakePTY) exit(code int) {
	f.mu.Lock()
	if !f.hungUp {
		f.hungUp = true
		f.exitCode = code
		close(f.done)
	}
	f.mu.Unlock()
	f.notify()
}

// stallWrites makes Write block, as for a child that stops reading its
// input, until the returned release is called.
func (f *fakePTY) stallWrites() (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.stall = ch
	f.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			f.stall = nil
			f.mu.Unlock()
			close(ch)
		})
	}
}

func (f *fakePTY) input() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.written.String()
}

func (f *fakePTY) resizeCalls() []winSize {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]winSize(nil), f.resizes...)
}

func (f *fakePTY) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakePTY) readable() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.out) > 0 || f.hungUp || f.closed
}

func (f *fakePTY) ReadNonblocking(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.out) > 0 {
		n := copy(p, f.out)
		f.out = f.out[n:]
		return n, nil
	}
	if f.hungUp || f.closed {
		return 0, ErrSessionClosed
	}
	return 0, nil
}

func (f *fakePTY) WaitReadable(timeout time.Duration) (bool, error) {
	if f.readable() {
		return true, nil
	}
	var timer <-chan time.Time
	if timeout >= 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}
	select {
	case <-f.wake:
	case <-timer:
	}
	return f.readable(), nil
}

func (f *fakePTY) Interrupt() { f.notify() }

func (f *fakePTY) Write(p []byte) (int, error) {
	f.mu.Lock()
	stall := f.stall
	f.mu.Unlock()
	if stall != nil {
		<-stall
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || f.hungUp {
		return 0, ErrSessionClosed
	}
	return f.written.Write(p)
}

func (f *fakePTY) Resize(cols, rows int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrSessionClosed
	}
	f.resizes = append(f.resizes, winSize{cols: cols, rows: rows})
	return nil
}

func (f *fakePTY) Pid() int { return 4242 }

func (f *fakePTY) Done() <-chan struct{} { return f.done }

func (f *fakePTY) ExitCode() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exitCode
}

func (f *fakePTY) Close() error {
	f.mu.Lock()
	f.closeCalls++
	f.closed = true
	if !f.hungUp {
		f.hungUp = true
		f.exitCode = 129 // SIGHUP
		close(f.done)
	}
	f.mu.Unlock()
	f.notify()
	return nil
}

// fakeSpawner hands out fakePTYs and remembers them in spawn order.
type fakeSpawner struct {
	mu    sync.Mutex
	ptys  []*fakePTY
	err   error
	calls int
}

func (s *fakeSpawner) spawn(opts PTYOptions) (PTY, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	p := newFakePTY(opts)
	s.ptys = append(s.ptys, p)
	return p, nil
}

func (s *fakeSpawner) last() *fakePTY {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ptys) == 0 {
		return nil
	}
	return s.ptys[len(s.ptys)-1]
}

func (s *fakeSpawner) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type busEvent struct {
	kind string
	data map[string]any
}

// recordingBus is an EventPublisher that keeps everything published.
type recordingBus struct {
	mu     sync.Mutex
	events []busEvent
}

func (b *recordingBus) Publish(eventType string, data map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, busEvent{kind: eventType, data: data})
}

func (b *recordingBus) find(kind string) (busEvent, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.events {
		if e.kind == kind {
			return e, true
		}
	}
	return busEvent{}, false
}
