package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/khafre/internal/config"
	"github.com/dshills/khafre/internal/event"
	"github.com/dshills/khafre/internal/logging"
	"github.com/dshills/khafre/internal/terminal"
	"github.com/dshills/khafre/internal/theme"
)

const shutdownTimeout = 5 * time.Second

// env is the loaded configuration, logger and event bus for one command.
type env struct {
	loadOpts config.LoadOptions
	result   config.Result
	log      *slog.Logger
	closer   io.Closer
	bus      *event.Bus
}

func (e *env) cfg() config.Config { return e.result.Config }

func (e *env) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = e.bus.Close(ctx)
	_ = e.closer.Close()
}

// load reads the configuration with the flags that were set on cmd
// layered on top. Quiet commands own the terminal, so their console logs
// are dropped unless a log file is configured.
func (o *options) load(cmd *cobra.Command, quiet bool) (*env, error) {
	opts := config.LoadOptions{
		UserFile:   o.configFile,
		ProjectDir: o.projectDir,
		Overrides:  o.overrides(cmd),
	}
	res, err := config.Load(opts)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	lc := res.Config.Logging
	if quiet && lc.File == "" {
		lc.Console = io.Discard
	} else {
		lc.Console = cmd.ErrOrStderr()
	}
	log, closer, err := logging.New(lc)
	if err != nil {
		return nil, fmt.Errorf("set up logging: %w", err)
	}
	if len(res.Files) > 0 {
		logging.WithComponent(log, logging.CompConfig).Debug("configuration loaded", "files", res.Files)
	}

	bus := event.NewBus(event.WithLogger(logging.WithComponent(log, logging.CompCLI)))
	_, _ = bus.Subscribe("terminal.**", logEvent(log),
		event.WithPriority(event.PriorityLow),
		event.WithDeliveryMode(event.DeliveryAsync))
	return &env{loadOpts: opts, result: res, log: log, closer: closer, bus: bus}, nil
}

func (o *options) overrides(cmd *cobra.Command) func(*config.Config) {
	flags := cmd.Flags()
	return func(c *config.Config) {
		if flags.Changed("log-level") {
			c.Logging.Level = o.logLevel
		}
		if flags.Changed("log-file") {
			c.Logging.File = o.logFile
		}
		if flags.Changed("theme") {
			c.Theme.Name = o.themeName
		}
		if flags.Changed("theme-file") {
			c.Theme.File = o.themeFile
		}
		if flags.Changed("theme-scheme") {
			c.Theme.Scheme = o.themeScheme
		}
		if flags.Changed("shell") {
			c.Terminal.Shell = o.shell
		}
		if flags.Changed("cols") {
			c.Terminal.Cols = o.cols
		}
		if flags.Changed("rows") {
			c.Terminal.Rows = o.rows
		}
		if flags.Changed("scrollback") {
			c.Terminal.Scrollback = o.scrollback
		}
		if flags.Changed("batch-window") {
			c.Terminal.BatchWindow = config.Duration(o.batchWindow)
		}
	}
}

// newManager builds a session manager publishing to the event bus.
func (e *env) newManager() *terminal.Manager {
	mc := e.cfg().ManagerConfig()
	mc.Logger = e.log
	mc.EventBus = e.bus
	return terminal.NewManager(mc)
}

// sessionOptions builds the options for a session running args, or the
// configured shell when args is empty.
func sessionOptions(c config.Config, id string, args []string) terminal.SessionOptions {
	opts := terminal.SessionOptions{
		ID:         id,
		Shell:      c.Terminal.Shell,
		Args:       c.Terminal.Args,
		Dir:        c.Terminal.Dir,
		Env:        c.Terminal.Env,
		Cols:       c.Terminal.Cols,
		Rows:       c.Terminal.Rows,
		Scrollback: c.Terminal.Scrollback,
	}
	if len(args) > 0 {
		opts.Shell = args[0]
		opts.Args = args[1:]
	}
	return opts
}

func shutdown(m *terminal.Manager, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := m.Shutdown(ctx); err != nil {
		log.Warn("session shutdown incomplete", "error", err)
	}
}

// logEvent writes events to the log at debug level.
func logEvent(log *slog.Logger) event.Handler {
	return func(ev event.Event) {
		args := make([]any, 0, 2*len(ev.Data))
		for _, k := range slices.Sorted(maps.Keys(ev.Data)) {
			args = append(args, k, ev.Data[k])
		}
		log.Debug(ev.Type, args...)
	}
}

// loadScheme resolves the configured color scheme.
func loadScheme(tc config.ThemeConfig) (theme.Scheme, theme.Preference, error) {
	pref, err := theme.ParsePreference(tc.Name)
	if err != nil {
		return theme.Scheme{}, "", err
	}
	if tc.File != "" {
		s, err := theme.LoadFile(tc.File, tc.Scheme)
		if err != nil {
			return theme.Scheme{}, pref, fmt.Errorf("load theme: %w", err)
		}
		return s, pref, nil
	}
	return theme.Detect(pref), pref, nil
}

// watchScheme calls apply whenever the color scheme changes, either because
// a configuration or theme file was edited or because the system switched
// between light and dark. The returned func stops watching.
func (e *env) watchScheme(ctx context.Context, apply func(theme.Scheme)) func() {
	log := logging.WithComponent(e.log, logging.CompTheme)
	ctx, cancel := context.WithCancel(ctx)

	var mu sync.Mutex
	active := e.cfg().Theme

	userFile := e.loadOpts.UserFile
	if userFile == "" {
		userFile = config.UserConfigPath()
	}
	files := append(slices.Clone(e.result.Files), userFile)
	if active.File != "" {
		files = append(files, active.File)
	}
	cw, err := config.NewWatcher(e.loadOpts, files, 0, func(res config.Result) {
		mu.Lock()
		active = res.Config.Theme
		tc := active
		mu.Unlock()

		s, _, err := loadScheme(tc)
		if err != nil {
			log.Warn("theme reload failed", "error", err)
			return
		}
		log.Info("theme reloaded", "scheme", s.Name)
		apply(s)
	}, config.WithLogger(logging.WithComponent(e.log, logging.CompConfig)))
	if err != nil {
		log.Warn("config watch unavailable", "error", err)
	}

	sw, err := theme.NewSystemWatcher(ctx, log)
	if err != nil {
		log.Debug("system appearance watch unavailable", "error", err)
	} else {
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case isDark := <-sw.Changes():
					mu.Lock()
					follow := active.File == "" && (active.Name == "" || active.Name == string(theme.PreferSystem))
					mu.Unlock()
					if follow {
						log.Info("system appearance changed", "dark", isDark)
						apply(theme.ForMode(isDark))
					}
				}
			}
		}()
	}

	return func() {
		cancel()
		if sw != nil {
			sw.Close()
		}
		if cw != nil {
			_ = cw.Close()
		}
	}
}
