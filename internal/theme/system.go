package theme

import (
	"context"
	"log/slog"
	"sync"

	dark "github.com/thiagokokada/dark-mode-go"
)

// Swapped in tests.
var (
	isDarkMode    = dark.IsDarkMode
	watchDarkMode = func(ctx context.Context) (<-chan bool, <-chan error, error) {
		events, errs, err := dark.WatchDarkMode(ctx)
		return events, errs, err
	}
)

// Detect returns the scheme for pref. With PreferSystem it asks the OS and
// falls back to Dark when the appearance cannot be read.
func Detect(pref Preference) Scheme {
	switch pref {
	case PreferDark:
		return Dark()
	case PreferLight:
		return Light()
	}
	isDark, err := isDarkMode()
	if err != nil {
		return Dark()
	}
	return ForMode(isDark)
}

// SystemWatcher reports changes of the OS dark mode setting.
type SystemWatcher struct {
	changeCh  chan bool
	closeCh   chan struct{}
	closeOnce sync.Once
	log       *slog.Logger
}

// NewSystemWatcher starts watching the OS appearance. It fails on platforms
// where the setting cannot be observed.
func NewSystemWatcher(parent context.Context, log *slog.Logger) (*SystemWatcher, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(parent)
	events, errs, err := watchDarkMode(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	w := &SystemWatcher{
		changeCh: make(chan bool, 1),
		closeCh:  make(chan struct{}),
		log:      log,
	}
	go w.loop(cancel, events, errs)
	return w, nil
}

func (w *SystemWatcher) loop(cancel context.CancelFunc, events <-chan bool, errs <-chan error) {
	defer cancel()
	for {
		select {
		case <-w.closeCh:
			return
		case isDark, ok := <-events:
			if !ok {
				return
			}
			// Keep only the latest value.
			select {
			case <-w.changeCh:
			default:
			}
			w.changeCh <- isDark
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				w.log.Warn("dark mode watch error", "error", err)
			}
		}
	}
}

// Changes receives true when the system switches to dark mode and false
// when it switches to light.
func (w *SystemWatcher) Changes() <-chan bool {
	return w.changeCh
}

// Close stops the watcher. Safe to call more than once.
func (w *SystemWatcher) Close() {
	w.closeOnce.Do(func() { close(w.closeCh) })
}
