package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"bodash/internal/admin"
	"bodash/internal/logging"
	"bodash/internal/tui"
)

var (
	serveAddr    string
	serveTUI     bool
	serveLogFile string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve charts, the draft and live optimizer progress over HTTP",
	Long:  "serve starts the admin server. With --tui the interactive dashboard runs alongside it and the server mirrors its charts and progress.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		if serveAddr == "" {
			serveAddr = cfg.AdminAddr
		}
		interactive := serveTUI && isTerminal(os.Stdout)

		log := logging.FromContext(ctx)
		if interactive {
			l, closeLog, err := tuiLogger(serveLogFile, cfg.LogLevel)
			if err != nil {
				return err
			}
			defer closeLog()
			log = l
		}
		a, err := newApp(cfg, log, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()
		a.loadCatalog(ctx)

		srv := admin.NewServer(a.ctl, log)
		a.ctl.Subscribe(srv.Hub().Publish)

		if !interactive {
			return srv.Start(ctx, serveAddr)
		}
		errc := make(chan error, 1)
		go func() { errc <- srv.Start(ctx, serveAddr) }()
		tuiErr := tui.Run(ctx, a.ctl, a.ctl, tui.Options{ExportDir: cfg.ChartDir})
		cancel()
		if err := <-errc; err != nil {
			return err
		}
		return tuiErr
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (config admin_addr when empty)")
	serveCmd.Flags().BoolVar(&serveTUI, "tui", false, "Run the interactive dashboard alongside the server")
	serveCmd.Flags().StringVar(&serveLogFile, "log-file", "", "Write logs to this file while the dashboard is open")
}
