// Package logging builds the structured loggers used across khafre.
//
// Components receive a *slog.Logger and tag it with WithComponent. The
// console handler is charmbracelet/log; when a log file is configured the
// records go to a rotating JSON file instead.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	clog "github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Component names for structured logging.
const (
	CompTerminal = "terminal"
	CompViewer   = "viewer"
	CompWeb      = "web"
	CompConfig   = "config"
	CompTheme    = "theme"
	CompCLI      = "cli"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum level: "debug", "info", "warn" or "error".
	Level string `toml:"level"`

	// Format is "text" (default) or "json". It applies to file output;
	// the console is always text.
	Format string `toml:"format"`

	// File, when set, sends logs to a rotating file instead of the console.
	File string `toml:"file"`

	// MaxSizeMB is the size in MB before rotation (default: 10).
	MaxSizeMB int `toml:"max_size_mb"`

	// MaxBackups is the number of rotated files to keep (default: 5).
	MaxBackups int `toml:"max_backups"`

	// MaxAgeDays is how long rotated files are kept (default: 10).
	MaxAgeDays int `toml:"max_age_days"`

	// Compress rotated files.
	Compress bool `toml:"compress"`

	// Console is where console logs go (default: stderr).
	Console io.Writer `toml:"-"`
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// New builds a logger from cfg. The returned closer releases the log file,
// if any; it is safe to call on console loggers.
func New(cfg Config) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	if cfg.File == "" {
		w := cfg.Console
		if w == nil {
			w = os.Stderr
		}
		h := clog.NewWithOptions(w, clog.Options{
			ReportTimestamp: true,
			Level:           clog.Level(level),
		})
		return slog.New(h), nopCloser{}, nil
	}

	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = 5
	}
	if cfg.MaxAgeDays <= 0 {
		cfg.MaxAgeDays = 10
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	lj := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if cfg.Format == "json" {
		h = slog.NewJSONHandler(lj, opts)
	} else {
		h = slog.NewTextHandler(lj, opts)
	}
	return slog.New(h), lj, nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// WithComponent tags a logger with a component name. A nil logger yields a
// discarding one.
func WithComponent(l *slog.Logger, name string) *slog.Logger {
	if l == nil {
		l = Discard()
	}
	return l.With("component", name)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
