package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dshills/khafre/internal/logging"
	"github.com/dshills/khafre/internal/theme"
	"github.com/dshills/khafre/internal/viewer"
)

// errNotTerminal is returned when run is started without a terminal.
var errNotTerminal = errors.New("run needs an interactive terminal; use dump for headless output")

func newRunCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run [-- command [args...]]",
		Short: "Run a shell or command in the current terminal (default)",
		Example: "  khafre-term run\n" +
			"  khafre-term run -- htop\n" +
			"  khafre-term --theme light -- vim notes.md",
		Args: cobra.ArbitraryArgs,
		RunE: o.runViewer,
	}
}

func (o *options) runViewer(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errNotTerminal
	}

	e, err := o.load(cmd, true)
	if err != nil {
		return err
	}
	defer e.Close()

	scheme, _, err := loadScheme(e.cfg().Theme)
	if err != nil {
		return err
	}

	// Ctrl+C reaches the child as a key; only external signals end the run.
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	mgr := e.newManager()
	defer shutdown(mgr, e.log)

	sess, err := mgr.Create(sessionOptions(e.cfg(), "main", args))
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("open screen: %w", err)
	}

	schemes := make(chan theme.Scheme, 1)
	stopWatch := e.watchScheme(ctx, func(s theme.Scheme) {
		// Keep only the latest scheme.
		select {
		case <-schemes:
		default:
		}
		select {
		case schemes <- s:
		default:
		}
	})
	defer stopWatch()

	v := viewer.New(screen, sess, viewer.Options{
		Scheme:  scheme,
		Logger:  logging.WithComponent(e.log, logging.CompViewer),
		Schemes: schemes,
	})
	if err := v.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	select {
	case <-sess.Done():
		return exitStatus(sess.ExitCode())
	default:
		return nil
	}
}
