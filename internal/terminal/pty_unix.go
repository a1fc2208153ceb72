//go:build !windows

package terminal

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// unixPTY drives the master side through its raw descriptor in non-blocking
// mode; the *os.File is kept only to own and close it.
type unixPTY struct {
	ptmx *os.File
	fd   int
	cmd  *exec.Cmd

	wakeR  *os.File
	wakeW  *os.File
	wakeFd int

	writeTimeout time.Duration
	writeMu      sync.Mutex

	closed    atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
	exitCode  atomic.Int32
}

func startPTY(opts PTYOptions) (PTY, error) {
	path, err := exec.LookPath(opts.Shell)
	if err != nil {
		return nil, launchError(opts.Shell, err)
	}
	if opts.Dir != "" {
		fi, err := os.Stat(opts.Dir)
		if err != nil {
			return nil, launchError(opts.Shell, fmt.Errorf("working directory: %w", err))
		}
		if !fi.IsDir() {
			return nil, launchError(opts.Shell, fmt.Errorf("working directory %s is not a directory", opts.Dir))
		}
	}

	ptmx, tty, err := pty.Open()
	if err != nil {
		return nil, allocError(opts.Shell, err)
	}
	ws := &pty.Winsize{Rows: uint16(opts.Rows), Cols: uint16(opts.Cols)}
	if err := pty.Setsize(ptmx, ws); err != nil {
		_ = ptmx.Close()
		_ = tty.Close()
		return nil, allocError(opts.Shell, err)
	}

	cmd := exec.Command(path, opts.Args...)
	cmd.Dir = opts.Dir
	cmd.Env = childEnv(opts.Env)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = tty, tty, tty
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true, Setctty: true}
	if err := cmd.Start(); err != nil {
		_ = ptmx.Close()
		_ = tty.Close()
		return nil, launchError(opts.Shell, err)
	}
	// The child holds its own copy of the slave.
	_ = tty.Close()

	wakeR, wakeW, err := os.Pipe()
	if err != nil {
		_ = cmd.Process.Kill()
		_ = ptmx.Close()
		return nil, allocError(opts.Shell, err)
	}

	fd := int(ptmx.Fd())
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = cmd.Process.Kill()
		_ = ptmx.Close()
		_ = wakeR.Close()
		_ = wakeW.Close()
		return nil, allocError(opts.Shell, err)
	}

	p := &unixPTY{
		ptmx:         ptmx,
		fd:           fd,
		cmd:          cmd,
		wakeR:        wakeR,
		wakeW:        wakeW,
		wakeFd:       int(wakeR.Fd()),
		writeTimeout: opts.WriteTimeout,
		done:         make(chan struct{}),
	}
	p.exitCode.Store(-1)
	go p.wait()
	return p, nil
}

// wait reaps the child and records its exit status. Death by signal is
// reported shell-style as 128+signal.
func (p *unixPTY) wait() {
	_ = p.cmd.Wait()
	code := -1
	if st := p.cmd.ProcessState; st != nil {
		code = st.ExitCode()
		if ws, ok := st.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			code = 128 + int(ws.Signal())
		}
	}
	p.exitCode.Store(int32(code))
	close(p.done)
}

func (p *unixPTY) ReadNonblocking(b []byte) (int, error) {
	if p.closed.Load() {
		return 0, ErrSessionClosed
	}
	n, err := unix.Read(p.fd, b)
	switch {
	case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EINTR):
		return 0, nil
	case err != nil:
		// EIO once the last slave descriptor is gone.
		return 0, fmt.Errorf("%w: %v", ErrSessionClosed, err)
	case n == 0:
		return 0, ErrSessionClosed
	}
	return n, nil
}

func (p *unixPTY) WaitReadable(timeout time.Duration) (bool, error) {
	if p.closed.Load() {
		return false, ErrSessionClosed
	}
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}
	fds := []unix.PollFd{
		{Fd: int32(p.fd), Events: unix.POLLIN},
		{Fd: int32(p.wakeFd), Events: unix.POLLIN},
	}
	n, err := unix.Poll(fds, ms)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return false, nil
		}
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	if fds[1].Revents&unix.POLLIN != 0 {
		var buf [64]byte
		_, _ = p.wakeR.Read(buf[:])
	}
	// Report hang-up as readable; the next read surfaces ErrSessionClosed.
	return fds[0].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR|unix.POLLNVAL) != 0, nil
}

func (p *unixPTY) Interrupt() {
	if p.closed.Load() {
		return
	}
	_, _ = p.wakeW.Write([]byte{0})
}

func (p *unixPTY) Write(b []byte) (int, error) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	deadline := time.Now().Add(p.writeTimeout)
	written := 0
	for written < len(b) {
		if p.closed.Load() {
			return written, ErrSessionClosed
		}
		n, err := unix.Write(p.fd, b[written:])
		if n > 0 {
			written += n
		}
		switch {
		case err == nil:
			continue
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return written, fmt.Errorf("%w: child not reading input after %s", ErrWriteFailed, p.writeTimeout)
			}
			fds := []unix.PollFd{{Fd: int32(p.fd), Events: unix.POLLOUT}}
			wait := min(remaining, 50*time.Millisecond)
			if _, err := unix.Poll(fds, int(wait/time.Millisecond)+1); err != nil && !errors.Is(err, unix.EINTR) {
				return written, fmt.Errorf("%w: %w", ErrWriteFailed, err)
			}
			if fds[0].Revents&(unix.POLLHUP|unix.POLLERR|unix.POLLNVAL) != 0 {
				return written, ErrSessionClosed
			}
		case errors.Is(err, unix.EIO):
			return written, ErrSessionClosed
		default:
			return written, fmt.Errorf("%w: %w", ErrWriteFailed, err)
		}
	}
	return written, nil
}

func (p *unixPTY) Resize(cols, rows int) error {
	if p.closed.Load() {
		return ErrSessionClosed
	}
	if !validSize(cols, rows) {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, cols, rows)
	}
	// The ioctl goes through the raw descriptor; ptmx.Fd() would switch it
	// back to blocking mode.
	ws := &unix.Winsize{Row: uint16(rows), Col: uint16(cols)}
	if err := unix.IoctlSetWinsize(p.fd, unix.TIOCSWINSZ, ws); err != nil {
		return fmt.Errorf("%w: %w", ErrResizeFailed, err)
	}
	return nil
}

func (p *unixPTY) Pid() int {
	if p.cmd.Process == nil {
		return -1
	}
	return p.cmd.Process.Pid
}

func (p *unixPTY) Done() <-chan struct{} {
	return p.done
}

func (p *unixPTY) ExitCode() int {
	return int(p.exitCode.Load())
}

// Close hangs up the child's process group, releases the master and reaps
// the child, escalating to SIGKILL after a grace period.
func (p *unixPTY) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		p.signal(syscall.SIGHUP)
		err = p.ptmx.Close()

		select {
		case <-p.done:
		case <-time.After(closeGrace):
			p.signal(syscall.SIGKILL)
			select {
			case <-p.done:
			case <-time.After(closeGrace):
			}
		}
		_ = p.wakeR.Close()
		_ = p.wakeW.Close()
	})
	return err
}

func (p *unixPTY) signal(sig syscall.Signal) {
	if p.cmd.Process == nil {
		return
	}
	select {
	case <-p.done:
		return
	default:
	}
	pid := p.cmd.Process.Pid
	if pgid, err := syscall.Getpgid(pid); err == nil && pgid == pid {
		_ = syscall.Kill(-pgid, sig)
		return
	}
	_ = p.cmd.Process.Signal(sig)
}
