package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"bodash/internal/dashboard"
	"bodash/internal/logging"
	"bodash/internal/model"
	"bodash/internal/tui"
)

var (
	optStartFrom   string
	optCapture     string
	optSave        bool
	optChartDir    string
	optGoal        string
	optGenerations int
	optPopSize     int
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Run the build order optimizer",
	Long:  "optimize streams optimizer progress from the backend and prints the best build order found. Interrupt to abandon the run.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if optGoal != "" {
			cfg.Optimize.Goal = optGoal
		}
		if optGenerations > 0 {
			cfg.Optimize.Generations = optGenerations
		}
		if optPopSize > 0 {
			cfg.Optimize.PopSize = optPopSize
		}
		a, err := newApp(cfg, logging.FromContext(ctx), appOptions{capture: optCapture})
		if err != nil {
			return err
		}
		defer a.Close()
		a.loadCatalog(ctx)

		pp := newProgressPrinter(cmd.ErrOrStderr())
		a.ctl.Subscribe(func(ev dashboard.Event) {
			if ev.Type == dashboard.EventProgress && ev.Progress != nil {
				pp.Progress(*ev.Progress)
			}
		})

		done, err := a.ctl.RunOptimize(ctx, optStartFrom)
		pp.Done()
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(cmd.ErrOrStderr(), "optimization cancelled")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tui.OptimizedReport(done, a.ctl.Label))
		if optSave {
			name, err := a.ctl.SaveOptimized(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "saved as", name)
		}
		if optChartDir != "" {
			if err := a.ctl.ShowOptimizedResult(); err != nil {
				return err
			}
		}
		return exportCharts(cmd, a, optChartDir)
	},
}

// progressPrinter writes optimizer progress lines. On a terminal each line
// overwrites the previous one.
type progressPrinter struct {
	mu      sync.Mutex
	w       io.Writer
	inPlace bool
	dirty   bool
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w, inPlace: isTerminal(w)}
}

func (p *progressPrinter) Progress(ev model.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	line := fmt.Sprintf("[%3d%%] %s", ev.Percent(), dashboard.ProgressText(ev))
	if p.inPlace {
		fmt.Fprintf(p.w, "\r\033[K%s", line)
		p.dirty = true
		return
	}
	fmt.Fprintln(p.w, line)
}

// Done ends an in-place progress line.
func (p *progressPrinter) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dirty {
		fmt.Fprintln(p.w)
		p.dirty = false
	}
}

func init() {
	optimizeCmd.Flags().StringVar(&optStartFrom, "start-from", "", "Saved build order used to seed the population")
	optimizeCmd.Flags().StringVar(&optCapture, "capture", "", "Record the raw optimizer stream to this file for replay")
	optimizeCmd.Flags().BoolVar(&optSave, "save", false, "Save the optimized build order on the backend")
	optimizeCmd.Flags().StringVar(&optChartDir, "charts", "", "Directory to write chart PNGs to")
	optimizeCmd.Flags().StringVar(&optGoal, "goal", "", "Optimization goal (config default when empty)")
	optimizeCmd.Flags().IntVar(&optGenerations, "generations", 0, "Generations (config default when 0)")
	optimizeCmd.Flags().IntVar(&optPopSize, "pop-size", 0, "Population size (config default when 0)")
}
