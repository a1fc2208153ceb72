// Package terminal runs shells on pseudo-terminals and models their screens.
//
// The package implements the terminal session engine:
//
//   - PTY management on Unix (creack/pty, poll-based non-blocking reads)
//   - A table-driven VT parser and an interpreter for CSI, SGR, OSC and
//     DEC private modes
//   - A cell grid with scrollback, alternate screen, wide characters and
//     grapheme clustering
//   - Output batching so floods of output are applied at a bounded rate
//   - A manager that owns sessions by ID
//
// # Architecture
//
//   - PTY: pseudo-terminal with an attached child process
//   - Parser: byte-at-a-time state machine emitting Action values
//   - Interpreter: applies actions to a Grid
//   - Grid: screen lines, cursor, modes, selection and History
//   - OutputBatcher: accumulates output for one window, then applies it
//   - Session: one PTY, its grid, and the goroutine reading it
//   - Manager: sessions keyed by ID
//
// Data flows from the PTY through the batcher into the interpreter; each
// applied batch produces one Snapshot, delivered to subscribers. Input flows
// the other way: key and mouse events are encoded by package input and
// written to the PTY.
//
// # Usage
//
//	manager := terminal.NewManager(terminal.ManagerConfig{
//	    EventBus: eventPublisher,
//	    Logger:   logger,
//	})
//
//	if err := manager.Spawn("main", "/bin/zsh", home, 80, 24); err != nil {
//	    return err
//	}
//
//	updates, cancel, _ := manager.Subscribe("main")
//	defer cancel()
//	_ = manager.Write("main", []byte("ls -la\r"))
//	for u := range updates {
//	    draw(u.Snapshot)
//	}
//
// # Thread Safety
//
// Manager and Session are safe for concurrent use. Grid, Parser,
// Interpreter and OutputBatcher are not; a Session serializes access to
// the ones it owns.
package terminal
