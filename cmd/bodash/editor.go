package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"bodash/internal/logging"
	"bodash/internal/tui"
)

var (
	edLogFile string
	edCapture string
)

var editorCmd = &cobra.Command{
	Use:     "editor",
	Aliases: []string{"ui"},
	Short:   "Open the interactive dashboard",
	Long:    "editor opens the terminal dashboard: simulate, compare and optimize saved build orders and edit a draft build order.",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !isTerminal(os.Stdout) {
			return errors.New("editor needs an interactive terminal; use simulate, compare or optimize instead")
		}
		ctx := cmd.Context()
		log, closeLog, err := tuiLogger(edLogFile, cfg.LogLevel)
		if err != nil {
			return err
		}
		defer closeLog()

		a, err := newApp(cfg, log, appOptions{capture: edCapture})
		if err != nil {
			return err
		}
		defer a.Close()
		a.loadCatalog(ctx)
		return tui.Run(ctx, a.ctl, a.ctl, tui.Options{ExportDir: cfg.ChartDir})
	},
}

// tuiLogger returns a logger that stays off the terminal: a file when path
// is set, otherwise nothing.
func tuiLogger(path, level string) (*slog.Logger, func(), error) {
	if path == "" {
		return logging.Discard(), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return logging.NewWithLevel(f, level), func() { f.Close() }, nil
}

func init() {
	editorCmd.Flags().StringVar(&edLogFile, "log-file", "", "Write logs to this file while the dashboard is open")
	editorCmd.Flags().StringVar(&edCapture, "capture", "", "Record raw optimizer streams to this file for replay")
}
