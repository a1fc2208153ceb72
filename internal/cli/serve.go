package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/khafre/internal/event"
	"github.com/dshills/khafre/internal/logging"
	"github.com/dshills/khafre/internal/webterm"
)

func newServeCmd(o *options) *cobra.Command {
	var (
		addr  string
		spawn string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve sessions to browsers over HTTP and WebSocket",
		Example: "  khafre-term serve\n" +
			"  khafre-term serve --addr :7681 --spawn main",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := o.load(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			scheme, _, err := loadScheme(e.cfg().Theme)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			mgr := e.newManager()
			defer shutdown(mgr, e.log)

			wlog := logging.WithComponent(e.log, logging.CompWeb)
			_, _ = e.bus.Subscribe("terminal.*", func(ev event.Event) {
				switch ev.Type {
				case "terminal.created", "terminal.closed":
					wlog.Info(strings.TrimPrefix(ev.Type, "terminal."), "session", ev.Data["id"])
				}
			})

			sc := e.cfg().Server
			srv := webterm.New(mgr, webterm.Config{
				AllowedOrigins: sc.AllowedOrigins,
				InputRate:      sc.InputRate,
				InputBurst:     sc.InputBurst,
				Scheme:         scheme,
				Logger:         e.log,
			})
			stopWatch := e.watchScheme(ctx, srv.SetScheme)
			defer stopWatch()

			if spawn != "" {
				if _, err := mgr.Create(sessionOptions(e.cfg(), spawn, nil)); err != nil {
					return fmt.Errorf("start session %s: %w", spawn, err)
				}
			}

			if !cmd.Flags().Changed("addr") {
				addr = sc.Addr
			}
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "address to bind (host:port; default from config)")
	cmd.Flags().StringVar(&spawn, "spawn", "", "start a session with this ID before serving")
	return cmd
}
