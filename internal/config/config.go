package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dshills/khafre/internal/logging"
	"github.com/dshills/khafre/internal/terminal"
)

// Geometry limits accepted from configuration.
const (
	MaxCols = 1000
	MaxRows = 1000
)

// Config is the complete khafre configuration.
type Config struct {
	Terminal TerminalConfig `toml:"terminal"`
	Theme    ThemeConfig    `toml:"theme"`
	Logging  logging.Config `toml:"logging"`
	Server   ServerConfig   `toml:"server"`
}

// TerminalConfig configures sessions.
type TerminalConfig struct {
	// Shell is the program to run. Empty uses $SHELL.
	Shell string `toml:"shell"`
	// Args are passed to the shell.
	Args []string `toml:"args"`
	// Dir is the initial working directory. Empty uses the current one.
	Dir string `toml:"dir"`
	// Env holds extra KEY=VALUE entries for the child.
	Env []string `toml:"env"`

	Cols       int `toml:"cols"`
	Rows       int `toml:"rows"`
	Scrollback int `toml:"scrollback"`

	// BatchWindow is how long output is accumulated before it is drawn.
	BatchWindow Duration `toml:"batch_window"`
	// ResizeWindow is how long resize requests are coalesced.
	ResizeWindow Duration `toml:"resize_window"`
}

// ThemeConfig selects the color scheme.
type ThemeConfig struct {
	// Name is "system", "dark" or "light".
	Name string `toml:"name"`
	// File is an optional theme file (Alacritty TOML, Windows Terminal
	// JSON, base16 YAML or iTerm2 plist) that replaces the built-in scheme.
	File string `toml:"file"`
	// Scheme picks a scheme by name (glob) in files that hold several.
	Scheme string `toml:"scheme"`
}

// ServerConfig configures the web bridge.
type ServerConfig struct {
	Addr string `toml:"addr"`
	// AllowedOrigins lists origins accepted for WebSocket upgrades. Empty
	// allows same-host requests only.
	AllowedOrigins []string `toml:"allowed_origins"`
	// InputRate is the sustained number of input frames per second accepted
	// from one client; InputBurst is the bucket size.
	InputRate  float64 `toml:"input_rate"`
	InputBurst int     `toml:"input_burst"`
}

// Duration is a time.Duration that reads and writes as text ("16ms").
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Terminal: TerminalConfig{
			Cols:         80,
			Rows:         24,
			Scrollback:   terminal.MaxScrollback,
			BatchWindow:  Duration(terminal.DefaultBatchWindow),
			ResizeWindow: Duration(terminal.DefaultResizeWindow),
		},
		Theme: ThemeConfig{Name: "system"},
		Logging: logging.Config{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr:       "127.0.0.1:7681",
			InputRate:  200,
			InputBurst: 400,
		},
	}
}

// Validate checks every setting and returns all failures joined.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, path, msg string, v any) {
		if !ok {
			errs = append(errs, &ValidationError{Path: path, Message: msg, Value: v})
		}
	}

	t := c.Terminal
	check(t.Cols >= 1 && t.Cols <= MaxCols, "terminal.cols", fmt.Sprintf("must be between 1 and %d", MaxCols), t.Cols)
	check(t.Rows >= 1 && t.Rows <= MaxRows, "terminal.rows", fmt.Sprintf("must be between 1 and %d", MaxRows), t.Rows)
	check(t.Scrollback >= 0 && t.Scrollback <= terminal.MaxScrollback, "terminal.scrollback",
		fmt.Sprintf("must be between 0 and %d", terminal.MaxScrollback), t.Scrollback)
	bw := t.BatchWindow.Std()
	check(bw >= terminal.MinBatchWindow && bw <= terminal.MaxBatchWindow, "terminal.batch_window",
		fmt.Sprintf("must be between %s and %s", terminal.MinBatchWindow, terminal.MaxBatchWindow), bw)
	check(t.ResizeWindow.Std() >= 0 && t.ResizeWindow.Std() <= time.Second, "terminal.resize_window",
		"must be between 0s and 1s", t.ResizeWindow.Std())

	switch c.Theme.Name {
	case "system", "dark", "light":
	default:
		check(false, "theme.name", `must be "system", "dark" or "light"`, c.Theme.Name)
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		check(false, "logging.level", "must be debug, info, warn or error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		check(false, "logging.format", `must be "text" or "json"`, c.Logging.Format)
	}

	check(c.Server.InputRate > 0, "server.input_rate", "must be positive", c.Server.InputRate)
	check(c.Server.InputBurst > 0, "server.input_burst", "must be positive", c.Server.InputBurst)

	return errors.Join(errs...)
}

// ManagerConfig converts the terminal settings into a session manager
// configuration.
func (c Config) ManagerConfig() terminal.ManagerConfig {
	return terminal.ManagerConfig{
		DefaultShell: c.Terminal.Shell,
		DefaultCols:  c.Terminal.Cols,
		DefaultRows:  c.Terminal.Rows,
		Scrollback:   c.Terminal.Scrollback,
		BatchWindow:  c.Terminal.BatchWindow.Std(),
		ResizeWindow: c.Terminal.ResizeWindow.Std(),
		Env:          c.Terminal.Env,
	}
}
