package terminal

import (
	"errors"
	"fmt"
)

// Sentinel errors for the terminal package.
var (
	// ErrProcessLaunchFailed is returned when the shell could not be started.
	ErrProcessLaunchFailed = errors.New("process launch failed")

	// ErrPTYAllocationFailed is returned when no pseudo-terminal could be opened.
	ErrPTYAllocationFailed = errors.New("pty allocation failed")

	// ErrWriteFailed is returned when input could not be delivered to the PTY.
	ErrWriteFailed = errors.New("pty write failed")

	// ErrResizeFailed is returned when the kernel rejected a window size change.
	ErrResizeFailed = errors.New("pty resize failed")

	// ErrSessionClosed is returned for operations on a session whose PTY is gone.
	ErrSessionClosed = errors.New("session is closed")

	// ErrSessionNotFound is returned when a session ID is not found.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExists is returned when spawning with an ID already in use.
	ErrSessionExists = errors.New("session already exists")

	// ErrInvalidSize is returned when terminal size is invalid.
	ErrInvalidSize = errors.New("invalid terminal size")

	// ErrPTYNotSupported is returned when PTY is not supported on this platform.
	ErrPTYNotSupported = errors.New("PTY not supported on this platform")

	// ErrManagerClosed is returned when operations are attempted on a closed manager.
	ErrManagerClosed = errors.New("session manager is closed")
)

// SpawnError describes a failed session spawn. Kind is ErrProcessLaunchFailed
// or ErrPTYAllocationFailed.
type SpawnError struct {
	Kind  error
	Shell string
	Err   error
}

func (e *SpawnError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("spawn %s: %v", e.Shell, e.Kind)
	}
	return fmt.Sprintf("spawn %s: %v: %v", e.Shell, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *SpawnError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func launchError(shell string, err error) error {
	return &SpawnError{Kind: ErrProcessLaunchFailed, Shell: shell, Err: err}
}

func allocError(shell string, err error) error {
	return &SpawnError{Kind: ErrPTYAllocationFailed, Shell: shell, Err: err}
}
