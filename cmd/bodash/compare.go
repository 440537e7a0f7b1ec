package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bodash/internal/logging"
	"bodash/internal/tui"
)

var (
	cmpLogFile  string
	cmpChartDir string
)

var compareCmd = &cobra.Command{
	Use:   "compare <build-order-a> <build-order-b>",
	Short: "Compare two saved build orders",
	Long:  "compare simulates two build orders and prints the milestone race, economy checkpoints and category winners.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(cfg, logging.FromContext(ctx), appOptions{logFile: cmpLogFile})
		if err != nil {
			return err
		}
		defer a.Close()

		view, err := a.ctl.RunCompare(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tui.CompareReport(view))
		return exportCharts(cmd, a, cmpChartDir)
	},
}

func init() {
	compareCmd.Flags().StringVar(&cmpLogFile, "log-file", "", "Path to export snapshot rows (JSONL)")
	compareCmd.Flags().StringVar(&cmpChartDir, "charts", "", "Directory to write chart PNGs to")
}
