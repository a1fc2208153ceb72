// Package cli implements the khafre-term command line.
package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// BuildInfo is stamped into the binary at build time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// ExitError carries the exit status of the child process out of a command.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("child exited with status %d", e.Code)
}

// options holds the flags shared by all commands.
type options struct {
	configFile  string
	projectDir  string
	logLevel    string
	logFile     string
	themeName   string
	themeFile   string
	themeScheme string
	shell       string
	cols        int
	rows        int
	scrollback  int
	batchWindow time.Duration
}

// NewRootCmd builds the command tree.
func NewRootCmd(info BuildInfo) *cobra.Command {
	o := &options{}

	root := &cobra.Command{
		Use:   "khafre-term [flags] [-- command [args...]]",
		Short: "khafre-term – terminal sessions on pseudo-terminals",
		Long: "khafre-term runs shells on pseudo-terminals and shows them in the " +
			"current terminal, in a browser, or as a plain text dump.",
		Args:          cobra.ArbitraryArgs,
		RunE:          o.runViewer,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&o.configFile, "config", "c", "", "user configuration file (default $XDG_CONFIG_HOME/khafre/config.toml)")
	pf.StringVar(&o.projectDir, "project", "", "directory searched for .khafre.toml and .env (default current directory)")
	pf.StringVar(&o.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&o.logFile, "log-file", "", "write logs to a rotating file")
	pf.StringVar(&o.themeName, "theme", "", "color scheme preference (system, dark, light)")
	pf.StringVar(&o.themeFile, "theme-file", "", "theme file (.toml, .json, .yaml, .itermcolors)")
	pf.StringVar(&o.themeScheme, "theme-scheme", "", "scheme name or glob inside a multi-scheme theme file")
	pf.StringVar(&o.shell, "shell", "", "shell to run when no command is given")
	pf.IntVar(&o.cols, "cols", 0, "initial columns")
	pf.IntVar(&o.rows, "rows", 0, "initial rows")
	pf.IntVar(&o.scrollback, "scrollback", 0, "scrollback rows")
	pf.DurationVar(&o.batchWindow, "batch-window", 0, "output batching window")

	root.AddCommand(
		newRunCmd(o),
		newServeCmd(o),
		newDumpCmd(o),
		newThemeCmd(o),
		newVersionCmd(info),
	)
	return root
}

// Execute runs the command line and returns the process exit status.
func Execute(info BuildInfo) int {
	if err := NewRootCmd(info).Execute(); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// exitStatus turns a child exit code into the command's result.
func exitStatus(code int) error {
	if code <= 0 {
		return nil
	}
	return &ExitError{Code: code}
}

func newVersionCmd(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "khafre-term %s\n", info.Version)
			fmt.Fprintf(out, "Commit: %s\n", info.Commit)
			fmt.Fprintf(out, "Built: %s\n", info.Date)
		},
	}
}
