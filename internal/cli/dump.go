package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/khafre/internal/terminal"
)

func newDumpCmd(o *options) *cobra.Command {
	var (
		format  string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "dump [flags] -- command [args...]",
		Short: "Run a command headless and print its final screen",
		Example: "  khafre-term dump -- ls --color=always\n" +
			"  khafre-term dump --format ansi --cols 120 -- git log --oneline",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "ansi" {
				return fmt.Errorf("unknown format %q (must be text or ansi)", format)
			}

			e, err := o.load(cmd, true)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			mgr := e.newManager()
			defer shutdown(mgr, e.log)

			sess, err := mgr.Create(sessionOptions(e.cfg(), "dump", args))
			if err != nil {
				return fmt.Errorf("start %s: %w", args[0], err)
			}

			var waitErr error
			select {
			case <-sess.Done():
			case <-ctx.Done():
				waitErr = ctx.Err()
				_ = sess.Close()
			}

			if err := writeScreen(cmd.OutOrStdout(), sess.Snapshot(), format); err != nil {
				return err
			}
			if errors.Is(waitErr, context.DeadlineExceeded) {
				return fmt.Errorf("%s still running after %s", args[0], timeout)
			}
			if waitErr != nil {
				return waitErr
			}
			return exitStatus(sess.ExitCode())
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format (text, ansi)")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "stop the command after this long (0 waits forever)")
	return cmd
}

// writeScreen prints the screen without trailing blank rows.
func writeScreen(w io.Writer, snap *terminal.Snapshot, format string) error {
	var out string
	if format == "ansi" {
		out = snap.EncodeANSI()
	} else {
		out = snap.Text()
	}
	out = strings.TrimRight(out, "\n")
	if out == "" {
		return nil
	}
	_, err := io.WriteString(w, out+"\n")
	return err
}
