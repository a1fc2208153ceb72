package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// File names searched by Load.
const (
	AppName         = "khafre"
	UserFileName    = "config.toml"
	ProjectFileName = ".khafre.toml"
	EnvFileName     = ".env"
	EnvPrefix       = "KHAFRE_"
)

// LoadOptions controls where Load looks for configuration.
type LoadOptions struct {
	// UserFile overrides the user config path. Empty uses UserConfigPath.
	UserFile string
	// ProjectDir is searched for .khafre.toml and .env. Empty uses the
	// current directory.
	ProjectDir string
	// SkipUser and SkipProject disable the corresponding file layers.
	SkipUser    bool
	SkipProject bool
	// LookupEnv reads environment variables. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
	// Overrides is applied last, for command-line flags.
	Overrides func(*Config)
}

// Result is a loaded configuration and the files it came from.
type Result struct {
	Config Config
	// Files lists the configuration files that existed and were applied,
	// lowest priority first.
	Files []string
}

// UserConfigPath returns the user configuration file path, honoring
// $XDG_CONFIG_HOME.
func UserConfigPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName, UserFileName)
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, AppName, UserFileName)
}

// Load builds the configuration from defaults, files, environment and
// overrides, then validates it.
func Load(opts LoadOptions) (Result, error) {
	res := Result{Config: Default()}

	if !opts.SkipUser {
		path := opts.UserFile
		if path == "" {
			path = UserConfigPath()
		}
		if err := res.apply(path); err != nil {
			return res, err
		}
	}

	dir := opts.ProjectDir
	if dir == "" {
		dir, _ = os.Getwd()
	}
	if !opts.SkipProject {
		if err := res.apply(filepath.Join(dir, ProjectFileName)); err != nil {
			return res, err
		}
	}

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	dotenv, err := readDotEnv(filepath.Join(dir, EnvFileName))
	if err != nil {
		return res, err
	}
	// Real environment variables win over the .env file.
	merged := func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := applyEnv(&res.Config, merged); err != nil {
		return res, err
	}

	if opts.Overrides != nil {
		opts.Overrides(&res.Config)
	}
	return res, res.Config.Validate()
}

// apply overlays a TOML file onto the configuration. A missing file is
// skipped.
func (r *Result) apply(path string) error {
	ok, err := DecodeFile(path, &r.Config)
	if err != nil {
		return err
	}
	if ok {
		r.Files = append(r.Files, path)
	}
	return nil
}

// DecodeFile decodes a TOML file into cfg, keeping values the file does not
// set. It reports false when the file does not exist.
func DecodeFile(path string, cfg *Config) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		perr := &ParseError{Path: path, Message: err.Error(), Err: err}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			perr.Line, perr.Column = derr.Position()
		}
		return false, perr
	}
	return true, nil
}

// Encode returns cfg as TOML.
func Encode(cfg Config) ([]byte, error) {
	return toml.Marshal(cfg)
}

func readDotEnv(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &ParseError{Path: path, Message: err.Error(), Err: err}
	}
	return env, nil
}

// envSetting binds one environment variable to a setting.
type envSetting struct {
	name string
	path string
	set  func(c *Config, v string) error
}

var envSettings = []envSetting{
	{"SHELL", "terminal.shell", func(c *Config, v string) error { c.Terminal.Shell = v; return nil }},
	{"DIR", "terminal.dir", func(c *Config, v string) error { c.Terminal.Dir = v; return nil }},
	{"COLS", "terminal.cols", intSetter(func(c *Config) *int { return &c.Terminal.Cols })},
	{"ROWS", "terminal.rows", intSetter(func(c *Config) *int { return &c.Terminal.Rows })},
	{"SCROLLBACK", "terminal.scrollback", intSetter(func(c *Config) *int { return &c.Terminal.Scrollback })},
	{"BATCH_WINDOW", "terminal.batch_window", durationSetter(func(c *Config) *Duration { return &c.Terminal.BatchWindow })},
	{"RESIZE_WINDOW", "terminal.resize_window", durationSetter(func(c *Config) *Duration { return &c.Terminal.ResizeWindow })},
	{"THEME", "theme.name", func(c *Config, v string) error { c.Theme.Name = strings.ToLower(v); return nil }},
	{"THEME_FILE", "theme.file", func(c *Config, v string) error { c.Theme.File = v; return nil }},
	{"THEME_SCHEME", "theme.scheme", func(c *Config, v string) error { c.Theme.Scheme = v; return nil }},
	{"LOG_LEVEL", "logging.level", func(c *Config, v string) error { c.Logging.Level = v; return nil }},
	{"LOG_FORMAT", "logging.format", func(c *Config, v string) error { c.Logging.Format = v; return nil }},
	{"LOG_FILE", "logging.file", func(c *Config, v string) error { c.Logging.File = v; return nil }},
	{"ADDR", "server.addr", func(c *Config, v string) error { c.Server.Addr = v; return nil }},
}

// EnvNames returns the supported environment variable names.
func EnvNames() []string {
	names := make([]string, len(envSettings))
	for i, s := range envSettings {
		names[i] = EnvPrefix + s.name
	}
	return names
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	var errs []error
	for _, s := range envSettings {
		v, ok := lookup(EnvPrefix + s.name)
		if !ok {
			continue
		}
		if err := s.set(cfg, strings.TrimSpace(v)); err != nil {
			errs = append(errs, fmt.Errorf("%w %s%s=%q (%s): %v", ErrUnknownEnv, EnvPrefix, s.name, v, s.path, err))
		}
	}
	return errors.Join(errs...)
}

func intSetter(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

func durationSetter(field func(*Config) *Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		// A bare number is taken as milliseconds.
		if n, err := strconv.Atoi(v); err == nil {
			*field(c) = Duration(time.Duration(n) * time.Millisecond)
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*field(c) = Duration(d)
		return nil
	}
}
