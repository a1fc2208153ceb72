package terminal

import "time"

// EventKind identifies a terminal event.
type EventKind uint8

const (
	// EventTitle is emitted when the application sets the window title.
	EventTitle EventKind = iota + 1
	// EventBell is emitted on BEL.
	EventBell
	// EventClipboard is emitted when the application stores text in the
	// clipboard (OSC 52).
	EventClipboard
	// EventWorkingDirectory is emitted when the shell reports its cwd (OSC 7).
	EventWorkingDirectory
	// EventExit is emitted once when the child process ends.
	EventExit
)

// String returns the event name used on the event bus.
func (k EventKind) String() string {
	switch k {
	case EventTitle:
		return "title"
	case EventBell:
		return "bell"
	case EventClipboard:
		return "clipboard"
	case EventWorkingDirectory:
		return "cwd"
	case EventExit:
		return "exit"
	default:
		return "unknown"
	}
}

// Event is something a session reports besides grid changes.
type Event struct {
	Kind      EventKind
	SessionID string
	Text      string // title, clipboard text or directory
	ExitCode  int
	Time      time.Time
}

// EventPublisher publishes terminal events.
type EventPublisher interface {
	Publish(eventType string, data map[string]any)
}
