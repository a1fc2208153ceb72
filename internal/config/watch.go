package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/khafre/internal/debounce"
)

// DefaultReloadDelay is how long the watcher waits for file events to settle.
const DefaultReloadDelay = 100 * time.Millisecond

// Handler is called with each successfully reloaded configuration.
type Handler func(Result)

// Watcher reloads the configuration when one of its files changes.
//
// Directories are watched rather than files so that editors which replace a
// file on save are still noticed.
type Watcher struct {
	opts    LoadOptions
	watcher *fsnotify.Watcher
	files   map[string]struct{}
	log     *slog.Logger

	onChange Handler
	onError  func(error)
	reload   *debounce.Debouncer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithErrorHandler sets a callback for reload failures. By default they
// are logged.
func WithErrorHandler(fn func(error)) WatcherOption {
	return func(w *Watcher) { w.onError = fn }
}

// WithLogger sets the watcher's logger.
func WithLogger(l *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.log = l
		}
	}
}

// NewWatcher watches files (typically Result.Files plus any theme file) and
// calls onChange with a fresh Load(opts) after they change. Missing files
// are watched through their directory and picked up when created.
func NewWatcher(opts LoadOptions, files []string, delay time.Duration, onChange Handler, options ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if delay <= 0 {
		delay = DefaultReloadDelay
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		opts:     opts,
		watcher:  fw,
		files:    make(map[string]struct{}),
		log:      slog.New(slog.DiscardHandler),
		onChange: onChange,
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, o := range options {
		o(w)
	}
	w.reload = debounce.NewDebouncer(delay, w.doReload)

	dirs := make(map[string]struct{})
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			continue
		}
		w.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			w.log.Warn("cannot watch config directory", "dir", dir, "error", err)
		}
	}

	w.wg.Add(1)
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if _, watched := w.files[filepath.Clean(event.Name)]; !watched {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			w.log.Debug("config file changed", "file", event.Name, "op", event.Op.String())
			w.reload.Call()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("config watcher error", "error", err)
		}
	}
}

func (w *Watcher) doReload() {
	if w.ctx.Err() != nil {
		return
	}
	res, err := Load(w.opts)
	if err != nil {
		if w.onError != nil {
			w.onError(err)
		} else {
			w.log.Warn("config reload failed", "error", err)
		}
		return
	}
	w.log.Info("config reloaded", "files", len(res.Files))
	if w.onChange != nil {
		w.onChange(res)
	}
}

// Close stops watching. A pending reload is dropped.
func (w *Watcher) Close() error {
	w.cancel()
	w.reload.Cancel()
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}
