package webterm

import (
	"bytes"
	"sync"
	"time"

	"github.com/dshills/khafre/internal/terminal"
)

// echoPTY is an in-memory PTY that echoes input back as output, turning CR
// into CRLF the way a cooked-mode tty does.
type echoPTY struct {
	mu       sync.Mutex
	out      []byte
	input    bytes.Buffer
	sizes    [][2]int
	hungUp   bool
	exitCode int

	wake chan struct{}
	done chan struct{}
}

func newEchoPTY() *echoPTY {
	return &echoPTY{exitCode: -1, wake: make(chan struct{}, 1), done: make(chan struct{})}
}

func (p *echoPTY) notify() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *echoPTY) emit(s string) {
	p.mu.Lock()
	p.out = append(p.out, s...)
	p.mu.Unlock()
	p.notify()
}

func (p *echoPTY) exit(code int) {
	p.mu.Lock()
	if !p.hungUp {
		p.hungUp = true
		p.exitCode = code
		close(p.done)
	}
	p.mu.Unlock()
	p.notify()
}

func (p *echoPTY) written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.input.String()
}

func (p *echoPTY) resizes() [][2]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][2]int(nil), p.sizes...)
}

func (p *echoPTY) readable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.out) > 0 || p.hungUp
}

func (p *echoPTY) ReadNonblocking(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.out) > 0 {
		n := copy(b, p.out)
		p.out = p.out[n:]
		return n, nil
	}
	if p.hungUp {
		return 0, terminal.ErrSessionClosed
	}
	return 0, nil
}

func (p *echoPTY) WaitReadable(timeout time.Duration) (bool, error) {
	if p.readable() {
		return true, nil
	}
	var timer <-chan time.Time
	if timeout >= 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}
	select {
	case <-p.wake:
	case <-timer:
	}
	return p.readable(), nil
}

func (p *echoPTY) Interrupt() { p.notify() }

func (p *echoPTY) Write(b []byte) (int, error) {
	p.mu.Lock()
	if p.hungUp {
		p.mu.Unlock()
		return 0, terminal.ErrSessionClosed
	}
	p.input.Write(b)
	p.out = append(p.out, bytes.ReplaceAll(b, []byte("\r"), []byte("\r\n"))...)
	p.mu.Unlock()
	p.notify()
	return len(b), nil
}

func (p *echoPTY) Resize(cols, rows int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sizes = append(p.sizes, [2]int{cols, rows})
	return nil
}

func (p *echoPTY) Pid() int { return 7 }

func (p *echoPTY) Done() <-chan struct{} { return p.done }

func (p *echoPTY) ExitCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode
}

func (p *echoPTY) Close() error {
	p.exit(129)
	return nil
}

// echoSpawner hands out echoPTYs.
type echoSpawner struct {
	mu   sync.Mutex
	ptys []*echoPTY
}

func (s *echoSpawner) spawn(terminal.PTYOptions) (terminal.PTY, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := newEchoPTY()
	s.ptys = append(s.ptys, p)
	return p, nil
}

func (s *echoSpawner) last() *echoPTY {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ptys) == 0 {
		return nil
	}
	return s.ptys[len(s.ptys)-1]
}
