package terminal

import "time"

// Batch window bounds.
const (
	DefaultBatchWindow = 16 * time.Millisecond
	MinBatchWindow     = 4 * time.Millisecond
	MaxBatchWindow     = 100 * time.Millisecond

	// DefaultBatchBytes forces an early flush during output floods.
	DefaultBatchBytes = 1 << 20
)

// ClampBatchWindow returns d limited to [MinBatchWindow, MaxBatchWindow].
// Zero or negative selects DefaultBatchWindow.
func ClampBatchWindow(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return DefaultBatchWindow
	case d < MinBatchWindow:
		return MinBatchWindow
	case d > MaxBatchWindow:
		return MaxBatchWindow
	}
	return d
}

// OutputBatcher accumulates PTY output and hands it to apply in one chunk
// per window. Bytes are passed on in arrival order and never dropped.
//
// It is driven by a single reader goroutine and is not safe for concurrent
// use. The time is passed in so callers and tests control the clock.
type OutputBatcher struct {
	window   time.Duration
	maxBytes int
	buf      []byte
	opened   time.Time
	apply    func([]byte)
}

// NewOutputBatcher creates a batcher. apply must not retain the slice.
func NewOutputBatcher(window time.Duration, maxBytes int, apply func([]byte)) *OutputBatcher {
	if maxBytes <= 0 {
		maxBytes = DefaultBatchBytes
	}
	return &OutputBatcher{
		window:   ClampBatchWindow(window),
		maxBytes: maxBytes,
		apply:    apply,
	}
}

// Window returns the batch window.
func (b *OutputBatcher) Window() time.Duration { return b.window }

// Len returns the number of buffered bytes.
func (b *OutputBatcher) Len() int { return len(b.buf) }

// Add buffers p. The first byte of a batch opens its window. A batch that
// reaches MaxBytes is flushed immediately.
func (b *OutputBatcher) Add(p []byte, now time.Time) {
	if len(p) == 0 {
		return
	}
	if len(b.buf) == 0 {
		b.opened = now
	}
	b.buf = append(b.buf, p...)
	if len(b.buf) >= b.maxBytes {
		b.Flush()
	}
}

// Due reports whether the open batch has reached the end of its window.
func (b *OutputBatcher) Due(now time.Time) bool {
	return len(b.buf) > 0 && now.Sub(b.opened) >= b.window
}

// Remaining returns the time left in the open window, or -1 when nothing is
// buffered.
func (b *OutputBatcher) Remaining(now time.Time) time.Duration {
	if len(b.buf) == 0 {
		return -1
	}
	return max(b.window-now.Sub(b.opened), 0)
}

// Flush applies the buffered bytes, if any, and reports whether it did.
func (b *OutputBatcher) Flush() bool {
	if len(b.buf) == 0 {
		return false
	}
	b.apply(b.buf)
	if cap(b.buf) > b.maxBytes {
		b.buf = nil
	} else {
		b.buf = b.buf[:0]
	}
	return true
}
