// Package debounce groups bursts of calls into single deferred calls.
//
// Debouncer waits for a quiet period and is used for file change
// notifications. Coalescer opens a fixed window on the first value and
// applies only the last value submitted within it; sessions use it so a
// window being dragged produces one resize instead of dozens.
package debounce

import (
	"sync"
	"time"
)

// Debouncer groups rapid successive calls into a single call after a quiet
// period.
//
// Thread-safety: All methods are safe for concurrent use. The callback is
// never run concurrently with itself.
type Debouncer struct {
	mu       sync.Mutex
	runMu    sync.Mutex
	delay    time.Duration
	timer    *time.Timer
	pending  bool
	seq      uint64 // detects stale timer callbacks
	callback func()
}

// NewDebouncer creates a debouncer that runs callback once no call has been
// made for delay.
func NewDebouncer(delay time.Duration, callback func()) *Debouncer {
	return &Debouncer{
		delay:    delay,
		callback: callback,
	}
}

// Call schedules the callback, pushing back any call already scheduled.
func (d *Debouncer) Call() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = true
	d.seq++
	currentSeq := d.seq

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if !d.pending || d.seq != currentSeq || d.callback == nil {
			d.mu.Unlock()
			return
		}
		d.pending = false
		d.mu.Unlock()
		d.run()
	})
}

// CallImmediate runs a pending callback now instead of waiting.
func (d *Debouncer) CallImmediate() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	if !d.pending || d.callback == nil {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.mu.Unlock()
	d.run()
}

func (d *Debouncer) run() {
	d.runMu.Lock()
	defer d.runMu.Unlock()
	d.callback()
}

// Cancel drops any pending call.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	d.pending = false
}

// IsPending reports whether a call is scheduled.
func (d *Debouncer) IsPending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Coalescer applies at most one value per window. The first Submit opens the
// window; later submits within it replace the value; when the window closes
// the last value is applied once.
//
// Unlike Debouncer the window is not extended by new submits, so a steady
// stream still produces one apply per window.
type Coalescer[T any] struct {
	mu      sync.Mutex
	applyMu sync.Mutex
	window  time.Duration
	apply   func(T)
	timer   *time.Timer
	value   T
	pending bool
	stopped bool
	seq     uint64
	running sync.WaitGroup
}

// NewCoalescer creates a coalescer that passes values to apply.
func NewCoalescer[T any](window time.Duration, apply func(T)) *Coalescer[T] {
	return &Coalescer[T]{window: window, apply: apply}
}

// Submit records v for the current window, opening one if none is open.
// It returns false once the coalescer is stopped.
func (c *Coalescer[T]) Submit(v T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return false
	}
	c.value = v
	if c.pending {
		return true
	}
	c.pending = true
	c.seq++
	currentSeq := c.seq
	c.timer = time.AfterFunc(c.window, func() { c.fire(currentSeq) })
	return true
}

func (c *Coalescer[T]) fire(seq uint64) {
	c.mu.Lock()
	if !c.pending || c.stopped || c.seq != seq {
		c.mu.Unlock()
		return
	}
	v := c.take()
	c.mu.Unlock()
	c.run(v)
}

// take clears the pending value and registers an apply in flight (must hold
// lock).
func (c *Coalescer[T]) take() T {
	v := c.value
	var zero T
	c.value = zero
	c.pending = false
	c.timer = nil
	c.running.Add(1)
	return v
}

func (c *Coalescer[T]) run(v T) {
	defer c.running.Done()
	c.applyMu.Lock()
	defer c.applyMu.Unlock()
	c.apply(v)
}

// Flush applies the pending value immediately, if any.
func (c *Coalescer[T]) Flush() {
	c.mu.Lock()
	if !c.pending || c.stopped {
		c.mu.Unlock()
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.seq++
	v := c.take()
	c.mu.Unlock()
	c.run(v)
}

// Pending returns the value waiting to be applied.
func (c *Coalescer[T]) Pending() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.pending
}

// Stop discards any pending value and waits for an apply in progress to
// return. Submit is a no-op afterwards. Stop must not be called from apply.
func (c *Coalescer[T]) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		c.running.Wait()
		return
	}
	c.stopped = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.seq++
	c.pending = false
	var zero T
	c.value = zero
	c.mu.Unlock()
	c.running.Wait()
}
