package terminal

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// PTY is a pseudo-terminal with a child process attached to its slave side.
//
// Reads never block: WaitReadable waits for output with a timeout and can be
// woken early by Interrupt, and ReadNonblocking returns immediately.
type PTY interface {
	// ReadNonblocking reads available output. It returns 0, nil when there
	// is nothing to read and ErrSessionClosed once the child side hung up.
	ReadNonblocking(p []byte) (int, error)

	// WaitReadable waits up to timeout for output or hang-up. A negative
	// timeout waits until Interrupt is called.
	WaitReadable(timeout time.Duration) (bool, error)

	// Interrupt wakes a goroutine blocked in WaitReadable.
	Interrupt()

	// Write sends input to the child. It gives up after a bounded time.
	Write(p []byte) (int, error)

	// Resize changes the window size reported to the child.
	Resize(cols, rows int) error

	// Pid returns the child process ID.
	Pid() int

	// Done is closed when the child process has exited.
	Done() <-chan struct{}

	// ExitCode returns the child's exit status, or -1 while it runs.
	ExitCode() int

	// Close terminates the child and releases the descriptor.
	Close() error
}

// PTYOptions configures SpawnPTY.
type PTYOptions struct {
	// Shell is the executable to run (defaults to $SHELL or /bin/sh).
	Shell string

	// Args are passed to the shell.
	Args []string

	// Dir is the working directory (defaults to the current directory).
	Dir string

	// Env holds additional KEY=VALUE entries; they override inherited ones.
	Env []string

	// Cols and Rows are the initial window size.
	Cols int
	Rows int

	// WriteTimeout bounds how long Write waits for the child to drain input.
	WriteTimeout time.Duration
}

const (
	defaultWriteTimeout = 2 * time.Second
	closeGrace          = 500 * time.Millisecond
	maxDimension        = 65535
)

// SpawnPTY starts the shell on a new pseudo-terminal.
//
// Failures are returned as *SpawnError: ErrProcessLaunchFailed when the
// shell cannot be found or started, ErrPTYAllocationFailed when no
// pseudo-terminal is available.
func SpawnPTY(opts PTYOptions) (PTY, error) {
	if !validSize(opts.Cols, opts.Rows) {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, opts.Cols, opts.Rows)
	}
	if opts.Shell == "" {
		opts.Shell = DefaultShell()
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}
	return startPTY(opts)
}

// DefaultShell returns $SHELL, falling back to /bin/sh.
func DefaultShell() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "/bin/sh"
}

func validSize(cols, rows int) bool {
	return cols >= 1 && rows >= 1 && cols <= maxDimension && rows <= maxDimension
}

// childEnv returns the inherited environment with the terminal type set and
// extra entries appended.
func childEnv(extra []string) []string {
	env := make([]string, 0, len(os.Environ())+len(extra)+2)
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "TERM=") || strings.HasPrefix(kv, "COLORTERM=") {
			continue
		}
		env = append(env, kv)
	}
	env = append(env, "TERM=xterm-256color", "COLORTERM=truecolor")
	return append(env, extra...)
}
