package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bodash/internal/logging"
	"bodash/internal/tui"
)

var (
	simPrintOnly bool
	simLogFile   string
	simChartDir  string
	simDuration  int
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <build-order-file>",
	Short: "Simulate a saved build order",
	Long:  "simulate runs one saved build order on the backend and prints its summary, milestones, stalls and construction log.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if simDuration > 0 {
			cfg.Simulate.Duration = simDuration
		}
		a, err := newApp(cfg, logging.FromContext(ctx), appOptions{printOnly: simPrintOnly, logFile: simLogFile})
		if err != nil {
			return err
		}
		defer a.Close()
		a.loadCatalog(ctx)

		res, err := a.ctl.RunSimulate(ctx, args[0])
		if err != nil {
			return err
		}
		if !simPrintOnly {
			fmt.Fprintln(cmd.OutOrStdout(), tui.ResultReport(res, a.ctl.Label))
		}
		return exportCharts(cmd, a, simChartDir)
	},
}

// exportCharts writes the live charts to dir when it is set.
func exportCharts(cmd *cobra.Command, a *app, dir string) error {
	if dir == "" {
		return nil
	}
	paths, err := a.ctl.ExportCharts(dir)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintln(cmd.ErrOrStderr(), "wrote", p)
	}
	return nil
}

func init() {
	simulateCmd.Flags().BoolVar(&simPrintOnly, "print-only", false, "Print snapshot rows as JSON lines instead of the report")
	simulateCmd.Flags().StringVar(&simLogFile, "log-file", "", "Path to export snapshot rows (JSONL)")
	simulateCmd.Flags().StringVar(&simChartDir, "charts", "", "Directory to write chart PNGs to")
	simulateCmd.Flags().IntVar(&simDuration, "duration", 0, "Simulated seconds (config default when 0)")
}
