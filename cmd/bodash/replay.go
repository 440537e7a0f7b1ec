package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"bodash/internal/export"
	"bodash/internal/logging"
	"bodash/internal/model"
	"bodash/internal/stream"
	"bodash/internal/tui"
)

var (
	replayInput string
	replaySpeed float64
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a captured optimizer stream",
	Long:  "replay feeds a stream captured with --capture back through the optimizer stream decoder, preserving the original pacing scaled by --speed.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := logging.FromContext(ctx)

		pr, pw := io.Pipe()
		go func() {
			pw.CloseWithError(export.ReplayStreamFile(ctx, replayInput, pw, replaySpeed))
		}()
		defer pr.Close()

		pp := newProgressPrinter(cmd.ErrOrStderr())
		var done *model.CompleteEvent
		dec := stream.NewOptimizeDecoder(stream.OptimizeHandlers{
			OnProgress: pp.Progress,
			OnComplete: func(ev model.CompleteEvent) { done = &ev },
		}).WithLogger(log)
		err := dec.Run(ctx, pr)
		pp.Done()
		if err != nil {
			return err
		}
		st := dec.Stats()
		log.Info("replay finished", "dispatched", st.Dispatched, "dropped", st.Dropped, "unhandled", st.Unhandled)
		if done == nil {
			return fmt.Errorf("%s: stream ended without a result", replayInput)
		}
		fmt.Fprintln(cmd.OutOrStdout(), tui.OptimizedReport(done, nil))
		return nil
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to a captured optimizer stream")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier (0 replays instantly)")
	replayCmd.MarkFlagRequired("input")
}
