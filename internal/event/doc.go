// Package event routes terminal events to interested components.
//
// Topics are dot-separated ("terminal.created", "terminal.title").
// Subscriptions may use wildcards:
//
//	terminal.*   - one segment: terminal.bell, terminal.closed
//	terminal.**  - zero or more segments
//	*.closed     - terminal.closed, viewer.closed
//
// Handlers run in priority order. Sync handlers run in the publisher's
// goroutine and must not block; async handlers run on the bus worker, and
// events for them are dropped when its queue is full.
//
// A *Bus satisfies terminal.EventPublisher, so it can be passed to a
// session manager directly:
//
//	bus := event.NewBus(event.WithLogger(logger))
//	defer bus.Close(ctx)
//
//	bus.Subscribe("terminal.**", logEvent, event.WithPriority(event.PriorityLow))
//	mgr := terminal.NewManager(terminal.ManagerConfig{EventBus: bus})
package event
