package terminal

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/khafre/internal/input"
)

// SessionOptions configures a new session. Zero fields take the manager's
// defaults.
type SessionOptions struct {
	// ID identifies the session. A random ID is generated when empty.
	ID string

	// Shell is the shell executable.
	Shell string

	// Args are passed to the shell.
	Args []string

	// Dir is the working directory.
	Dir string

	// Env holds additional KEY=VALUE entries.
	Env []string

	// Cols and Rows are the initial window size.
	Cols int
	Rows int

	// Scrollback is the number of history rows kept (at most MaxScrollback).
	Scrollback int
}

// ManagerConfig configures a session manager.
type ManagerConfig struct {
	// DefaultShell is the default shell (defaults to $SHELL).
	DefaultShell string

	// DefaultCols is the default terminal width.
	DefaultCols int

	// DefaultRows is the default terminal height.
	DefaultRows int

	// Scrollback is the default scrollback rows.
	Scrollback int

	// BatchWindow is how long PTY output is accumulated before it is
	// applied (clamped to MinBatchWindow..MaxBatchWindow).
	BatchWindow time.Duration

	// ResizeWindow is how long resize requests are coalesced.
	ResizeWindow time.Duration

	// Env is added to every session's environment.
	Env []string

	// EventBus for publishing terminal events.
	EventBus EventPublisher

	// Logger receives session lifecycle and I/O failure logs.
	Logger *slog.Logger

	// Spawner starts PTYs. Defaults to SpawnPTY.
	Spawner func(PTYOptions) (PTY, error)
}

// Manager owns all sessions, keyed by ID.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	pending  map[string]struct{}
	shutdown bool

	cfg      ManagerConfig
	eventBus EventPublisher
	log      *slog.Logger

	closed atomic.Bool
}

// NewManager creates a new session manager.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.DefaultShell == "" {
		cfg.DefaultShell = DefaultShell()
	}
	if cfg.DefaultCols <= 0 {
		cfg.DefaultCols = 80
	}
	if cfg.DefaultRows <= 0 {
		cfg.DefaultRows = 24
	}
	if cfg.Scrollback <= 0 || cfg.Scrollback > MaxScrollback {
		cfg.Scrollback = MaxScrollback
	}
	cfg.BatchWindow = ClampBatchWindow(cfg.BatchWindow)
	if cfg.ResizeWindow <= 0 {
		cfg.ResizeWindow = DefaultResizeWindow
	}
	if cfg.Spawner == nil {
		cfg.Spawner = SpawnPTY
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Manager{
		sessions: make(map[string]*Session),
		pending:  make(map[string]struct{}),
		cfg:      cfg,
		eventBus: cfg.EventBus,
		log:      logger.With("component", "terminal"),
	}
}

// Spawn starts a shell in a new session registered under id.
func (m *Manager) Spawn(id, shell, cwd string, cols, rows int) error {
	_, err := m.Create(SessionOptions{
		ID:    id,
		Shell: shell,
		Dir:   cwd,
		Cols:  cols,
		Rows:  rows,
	})
	return err
}

// Create starts a new session. It fails with ErrSessionExists when the ID is
// taken and with a *SpawnError when the shell or PTY cannot be started.
func (m *Manager) Create(opts SessionOptions) (*Session, error) {
	if m.closed.Load() {
		return nil, ErrManagerClosed
	}

	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.Shell == "" {
		opts.Shell = m.cfg.DefaultShell
	}
	if opts.Cols <= 0 {
		opts.Cols = m.cfg.DefaultCols
	}
	if opts.Rows <= 0 {
		opts.Rows = m.cfg.DefaultRows
	}
	if opts.Scrollback <= 0 {
		opts.Scrollback = m.cfg.Scrollback
	}

	if err := m.reserve(opts.ID); err != nil {
		return nil, err
	}

	p, err := m.cfg.Spawner(PTYOptions{
		Shell: opts.Shell,
		Args:  opts.Args,
		Dir:   opts.Dir,
		Env:   append(slices.Clone(m.cfg.Env), opts.Env...),
		Cols:  opts.Cols,
		Rows:  opts.Rows,
	})
	if err != nil {
		m.release(opts.ID)
		m.log.Warn("spawn failed", "session", opts.ID, "shell", opts.Shell, "error", err)
		return nil, err
	}

	s := newSession(p, sessionConfig{
		id:           opts.ID,
		shell:        opts.Shell,
		dir:          opts.Dir,
		cols:         opts.Cols,
		rows:         opts.Rows,
		scrollback:   opts.Scrollback,
		batchWindow:  m.cfg.BatchWindow,
		resizeWindow: m.cfg.ResizeWindow,
		logger:       m.log,
		onEvent:      m.forwardEvent,
		onClose:      m.remove,
	})

	m.mu.Lock()
	delete(m.pending, opts.ID)
	if m.shutdown {
		m.mu.Unlock()
		_ = p.Close()
		return nil, ErrManagerClosed
	}
	m.sessions[opts.ID] = s
	m.mu.Unlock()

	// Started after registration so a child that exits at once is still
	// removed by the close callback.
	s.start()

	m.log.Info("session created", "session", opts.ID, "shell", opts.Shell, "pid", p.Pid())
	m.publishEvent("terminal.created", map[string]any{
		"id":    opts.ID,
		"shell": opts.Shell,
		"cols":  opts.Cols,
		"rows":  opts.Rows,
	})
	return s, nil
}

func (m *Manager) reserve(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shutdown {
		return ErrManagerClosed
	}
	if _, ok := m.sessions[id]; ok {
		return fmt.Errorf("%w: %s", ErrSessionExists, id)
	}
	if _, ok := m.pending[id]; ok {
		return fmt.Errorf("%w: %s", ErrSessionExists, id)
	}
	m.pending[id] = struct{}{}
	return nil
}

func (m *Manager) release(id string) {
	m.mu.Lock()
	delete(m.pending, id)
	m.mu.Unlock()
}

// remove is the session close callback.
func (m *Manager) remove(s *Session) {
	m.mu.Lock()
	if cur, ok := m.sessions[s.id]; ok && cur == s {
		delete(m.sessions, s.id)
	}
	m.mu.Unlock()

	m.publishEvent("terminal.closed", map[string]any{
		"id":       s.id,
		"exitCode": s.ExitCode(),
	})
}

func (m *Manager) forwardEvent(ev Event) {
	switch ev.Kind {
	case EventExit:
		// Reported as terminal.closed by remove.
	case EventBell:
		m.publishEvent("terminal.bell", map[string]any{"id": ev.SessionID})
	default:
		m.publishEvent("terminal."+ev.Kind.String(), map[string]any{
			"id":   ev.SessionID,
			"text": ev.Text,
		})
	}
}

// Get returns a session by ID.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *Manager) lookup(id string) (*Session, error) {
	s, ok := m.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// List returns all sessions, oldest first.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	result := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		result = append(result, s)
	}
	m.mu.RUnlock()

	slices.SortFunc(result, func(a, b *Session) int {
		if c := a.created.Compare(b.created); c != 0 {
			return c
		}
		if a.id < b.id {
			return -1
		}
		if a.id > b.id {
			return 1
		}
		return 0
	})
	return result
}

// Count returns the number of sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Write sends input to a session.
func (m *Manager) Write(id string, p []byte) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	_, err = s.Write(p)
	return err
}

// Resize requests a new window size for a session. Rapid requests are
// coalesced.
func (m *Manager) Resize(id string, cols, rows int) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	return s.Resize(cols, rows)
}

// Close ends a session.
func (m *Manager) Close(id string) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	return s.Close()
}

// Snapshot returns a copy of a session's screen.
func (m *Manager) Snapshot(id string) (*Snapshot, error) {
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	return s.Snapshot(), nil
}

// Scroll moves a session's viewport into or out of history.
func (m *Manager) Scroll(id string, delta int) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	s.Scroll(delta)
	return nil
}

// ScrollToBottom returns a session's viewport to the live screen.
func (m *Manager) ScrollToBottom(id string) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	s.ScrollToBottom()
	return nil
}

// StartSelection begins a selection at a viewport position.
func (m *Manager) StartSelection(id string, mode SelectionMode, row, col int) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	s.StartSelection(mode, row, col)
	return nil
}

// UpdateSelection extends the selection to a viewport position.
func (m *Manager) UpdateSelection(id string, row, col int) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	s.UpdateSelection(row, col)
	return nil
}

// ClearSelection removes a session's selection.
func (m *Manager) ClearSelection(id string) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	s.ClearSelection()
	return nil
}

// SelectionText returns the selected text of a session.
func (m *Manager) SelectionText(id string) (string, error) {
	s, err := m.lookup(id)
	if err != nil {
		return "", err
	}
	return s.SelectionText(), nil
}

// SendKey sends an encoded key event to a session.
func (m *Manager) SendKey(id string, ev input.KeyEvent) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	return s.SendKey(ev)
}

// SendMouse sends a mouse event to a session.
func (m *Manager) SendMouse(id string, ev input.MouseEvent) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	return s.SendMouse(ev)
}

// Paste pastes text into a session.
func (m *Manager) Paste(id, text string) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	return s.Paste(text)
}

// Subscribe returns a channel of screen updates for a session and a function
// that cancels the subscription.
func (m *Manager) Subscribe(id string) (<-chan Update, func(), error) {
	s, err := m.lookup(id)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.Subscribe()
	return ch, cancel, nil
}

// Shutdown closes every session and refuses new ones. It returns early with
// the context's error if teardown does not finish in time.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return nil
	}
	m.shutdown = true
	m.closed.Store(true)
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	var g errgroup.Group
	for _, s := range sessions {
		g.Go(s.Close)
	}
	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		m.log.Info("manager shut down", "sessions", len(sessions))
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// publishEvent publishes an event if an event bus is configured.
func (m *Manager) publishEvent(eventType string, data map[string]any) {
	if m.eventBus != nil {
		if data == nil {
			data = make(map[string]any)
		}
		data["timestamp"] = time.Now().UnixMilli()
		m.eventBus.Publish(eventType, data)
	}
}
