package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"bodash/internal/config"
	"bodash/internal/logging"
)

var (
	configPath string
	schemaPath string
	logLevel   string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "bodash",
	Short: "Build order dashboard",
	Long:  "bodash simulates, compares, optimizes and edits build orders against a simulation backend.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath, schemaPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			c.LogLevel = logLevel
		}
		cfg = c
		log := logging.NewWithLevel(os.Stderr, cfg.LogLevel)
		slog.SetDefault(log)
		cmd.SetContext(logging.NewContext(cmd.Context(), log))
		return nil
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to dashboard configuration YAML")
	rootCmd.PersistentFlags().StringVar(&schemaPath, "schema", "", "Path to CUE schema file (built-in schema when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(optimizeCmd)
	rootCmd.AddCommand(editorCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(buildOrderCmd)
	rootCmd.AddCommand(factionCmd)
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
