package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// ErrInvalidPattern is returned by Subscribe for malformed topic patterns.
var ErrInvalidPattern = errors.New("invalid topic pattern")

// ErrBusClosed is returned by Subscribe after Close.
var ErrBusClosed = errors.New("event bus is closed")

// Event is a published event.
type Event struct {
	Type string
	Data map[string]any
	Time time.Time
}

// Handler receives events.
type Handler func(Event)

// Priority determines handler execution order. Lower values run first.
type Priority int

const (
	PriorityCritical Priority = 0
	PriorityHigh     Priority = 100
	PriorityNormal   Priority = 200
	PriorityLow      Priority = 300
)

// DeliveryMode selects where a handler runs.
type DeliveryMode int

const (
	// DeliverySync runs the handler in the publisher's goroutine.
	DeliverySync DeliveryMode = iota
	// DeliveryAsync queues the event for the bus worker.
	DeliveryAsync
)

// DefaultQueueSize is the async queue length.
const DefaultQueueSize = 256

type subscription struct {
	id       uint64
	pattern  string
	handler  Handler
	priority Priority
	mode     DeliveryMode
	once     bool
	done     atomic.Bool
}

// SubscriptionOption configures a subscription.
type SubscriptionOption func(*subscription)

// WithPriority sets the handler priority (default PriorityNormal).
func WithPriority(p Priority) SubscriptionOption {
	return func(s *subscription) { s.priority = p }
}

// WithDeliveryMode sets sync or async delivery (default sync).
func WithDeliveryMode(m DeliveryMode) SubscriptionOption {
	return func(s *subscription) { s.mode = m }
}

// WithOnce removes the subscription after its first event.
func WithOnce() SubscriptionOption {
	return func(s *subscription) { s.once = true }
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithLogger sets the logger used for handler panics and dropped events.
func WithLogger(l *slog.Logger) BusOption {
	return func(b *Bus) {
		if l != nil {
			b.log = l
		}
	}
}

// WithQueueSize sets the async queue length.
func WithQueueSize(n int) BusOption {
	return func(b *Bus) {
		if n > 0 {
			b.queueSize = n
		}
	}
}

type queued struct {
	ev  Event
	sub *subscription
}

// Stats counts bus activity.
type Stats struct {
	Published     uint64
	Delivered     uint64
	Dropped       uint64
	Panics        uint64
	Subscriptions int
}

// Bus delivers events to subscriptions whose pattern matches the event
// type.
type Bus struct {
	mu     sync.RWMutex
	subs   []*subscription
	nextID uint64
	closed bool

	log       *slog.Logger
	queueSize int
	queue     chan queued
	wg        sync.WaitGroup
	closeOnce sync.Once

	published atomic.Uint64
	delivered atomic.Uint64
	dropped   atomic.Uint64
	panics    atomic.Uint64
}

// NewBus creates a bus and starts its async worker.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		log:       slog.New(slog.DiscardHandler),
		queueSize: DefaultQueueSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.queue = make(chan queued, b.queueSize)
	b.wg.Add(1)
	go b.worker()
	return b
}

// Subscribe registers handler for topics matching pattern. The returned
// func removes the subscription.
func (b *Bus) Subscribe(pattern string, handler Handler, opts ...SubscriptionOption) (func(), error) {
	if !ValidPattern(pattern) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}
	if handler == nil {
		return nil, errors.New("nil handler")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBusClosed
	}
	b.nextID++
	s := &subscription{id: b.nextID, pattern: pattern, handler: handler, priority: PriorityNormal}
	for _, opt := range opts {
		opt(s)
	}
	// Keep subscriptions sorted by priority, then registration order.
	i, _ := slices.BinarySearchFunc(b.subs, s, func(a, t *subscription) int {
		if a.priority != t.priority {
			return int(a.priority - t.priority)
		}
		return int(a.id) - int(t.id)
	})
	b.subs = slices.Insert(b.subs, i, s)

	return func() { b.remove(s) }, nil
}

func (b *Bus) remove(s *subscription) {
	s.done.Store(true)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = slices.DeleteFunc(b.subs, func(x *subscription) bool { return x == s })
}

// Publish delivers an event of the given type. It implements
// terminal.EventPublisher.
func (b *Bus) Publish(eventType string, data map[string]any) {
	b.PublishEvent(Event{Type: eventType, Data: data, Time: time.Now()})
}

// PublishEvent delivers ev to every matching subscription.
func (b *Bus) PublishEvent(ev Event) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	var matched []*subscription
	for _, s := range b.subs {
		if Match(s.pattern, ev.Type) {
			matched = append(matched, s)
		}
	}
	b.published.Add(1)

	// Async events are queued under the read lock so Close cannot close
	// the queue underneath us.
	var direct []*subscription
	for _, s := range matched {
		if s.mode != DeliveryAsync {
			direct = append(direct, s)
			continue
		}
		select {
		case b.queue <- queued{ev: ev, sub: s}:
		default:
			b.dropped.Add(1)
			b.log.Warn("event dropped", "type", ev.Type, "pattern", s.pattern)
		}
	}
	b.mu.RUnlock()

	for _, s := range direct {
		b.deliver(s, ev)
	}
}

func (b *Bus) deliver(s *subscription, ev Event) {
	if s.done.Load() {
		return
	}
	if s.once {
		if !s.done.CompareAndSwap(false, true) {
			return
		}
		defer b.remove(s)
	}
	defer func() {
		if r := recover(); r != nil {
			b.panics.Add(1)
			b.log.Error("event handler panicked",
				"type", ev.Type,
				"pattern", s.pattern,
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	s.handler(ev)
	b.delivered.Add(1)
}

func (b *Bus) worker() {
	defer b.wg.Done()
	for q := range b.queue {
		b.deliver(q.sub, q.ev)
	}
}

// Stats returns a snapshot of the bus counters.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	n := len(b.subs)
	b.mu.RUnlock()
	return Stats{
		Published:     b.published.Load(),
		Delivered:     b.delivered.Load(),
		Dropped:       b.dropped.Load(),
		Panics:        b.panics.Load(),
		Subscriptions: n,
	}
}

// Close stops accepting events and waits for queued async deliveries,
// or until ctx is done.
func (b *Bus) Close(ctx context.Context) error {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		close(b.queue)
		b.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
