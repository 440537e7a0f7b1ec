package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bodash/internal/history"
)

var (
	histKind  string
	histLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded runs",
	Long:  "history lists simulate, compare and optimize runs recorded in the local run history, newest first.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		switch histKind {
		case "", history.KindSimulate, history.KindCompare, history.KindOptimize:
		default:
			return fmt.Errorf("unknown run kind %q", histKind)
		}
		st, err := history.Open(cfg.HistoryDB)
		if err != nil {
			return err
		}
		defer st.Close()
		return printHistory(cmd.Context(), cmd, st, histKind, histLimit, time.Now())
	},
}

func printHistory(ctx context.Context, cmd *cobra.Command, st *history.Store, kind string, limit int, now time.Time) error {
	runs, err := st.List(ctx, kind, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintln(cmd.OutOrStdout(), r.Summary(now))
	}
	return nil
}

func init() {
	historyCmd.Flags().StringVar(&histKind, "kind", "", "Only list runs of this kind: simulate, compare or optimize")
	historyCmd.Flags().IntVar(&histLimit, "limit", 20, "Maximum number of runs to list")
}
