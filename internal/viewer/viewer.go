package viewer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/khafre/internal/input"
	"github.com/dshills/khafre/internal/terminal"
	"github.com/dshills/khafre/internal/theme"
)

// Session is the part of *terminal.Session the viewer drives.
type Session interface {
	Subscribe() (<-chan terminal.Update, func())
	Snapshot() *terminal.Snapshot
	Resize(cols, rows int) error
	SendKey(ev input.KeyEvent) error
	SendMouse(ev input.MouseEvent) error
	Paste(text string) error
	Focus(focused bool) error
	Scroll(delta int)
	StartSelection(mode terminal.SelectionMode, row, col int)
	UpdateSelection(row, col int)
	ClearSelection()
	SelectionText() string
	Done() <-chan struct{}
}

// Options configures a Viewer.
type Options struct {
	Scheme theme.Scheme
	Logger *slog.Logger
	// Schemes, when set, switches the scheme while the viewer runs.
	Schemes <-chan theme.Scheme
}

// Viewer renders one session on a tcell screen.
type Viewer struct {
	screen tcell.Screen
	sess   Session
	log    *slog.Logger

	mu     sync.Mutex
	scheme theme.Scheme
	last   *terminal.Snapshot

	schemes <-chan theme.Scheme

	// local selection and paste state, owned by the event loop
	clicks    clickTracker
	buttons   tcell.ButtonMask
	selecting bool
	pasting   bool
	paste     []rune
}

// New creates a viewer. The screen is initialized by Run.
func New(screen tcell.Screen, sess Session, opts Options) *Viewer {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	scheme := opts.Scheme
	if scheme == (theme.Scheme{}) {
		scheme = theme.Dark()
	}
	return &Viewer{
		screen:  screen,
		sess:    sess,
		log:     log,
		scheme:  scheme,
		schemes: opts.Schemes,
		clicks:  newClickTracker(),
	}
}

// SetScheme changes the colors and redraws.
func (v *Viewer) SetScheme(s theme.Scheme) {
	v.mu.Lock()
	v.scheme = s
	last := v.last
	v.mu.Unlock()
	if last != nil {
		v.draw(last)
	}
}

// Run initializes the screen and runs until the session ends or ctx is
// cancelled. The screen is finalized on return.
func (v *Viewer) Run(ctx context.Context) error {
	if err := v.screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	v.screen.EnableMouse()
	v.screen.EnablePaste()
	if f, ok := v.screen.(interface{ EnableFocus() }); ok {
		f.EnableFocus()
	}

	cols, rows := v.screen.Size()
	if err := v.sess.Resize(max(cols, 1), max(rows, 1)); err != nil {
		v.log.Warn("initial resize failed", "error", err)
	}

	updates, cancel := v.sess.Subscribe()
	defer cancel()

	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()
	defer func() {
		close(quit)
		v.screen.Fini()
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-v.sess.Done():
			return nil
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			if v.handleUpdate(u) {
				return nil
			}
		case s := <-v.schemes:
			v.SetScheme(s)
		case ev := <-events:
			v.handleEvent(ev)
		}
	}
}

// handleUpdate draws an update and acts on its events. It reports whether
// the session has exited.
func (v *Viewer) handleUpdate(u terminal.Update) bool {
	exited := false
	for _, ev := range u.Events {
		switch ev.Kind {
		case terminal.EventTitle:
			if t, ok := v.screen.(interface{ SetTitle(string) }); ok {
				t.SetTitle(ev.Text)
			}
		case terminal.EventBell:
			_ = v.screen.Beep()
		case terminal.EventClipboard:
			v.setClipboard(ev.Text)
		case terminal.EventExit:
			exited = true
		}
	}
	if u.Snapshot != nil {
		v.draw(u.Snapshot)
	}
	return exited
}

func (v *Viewer) setClipboard(text string) {
	if c, ok := v.screen.(interface{ SetClipboard([]byte) }); ok {
		c.SetClipboard([]byte(text))
	}
}
