package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"

	"bodash/internal/chart"
	"bodash/internal/client"
	"bodash/internal/history"
	"bodash/internal/model"
	"bodash/internal/stream"
)

// OptimizeRequest builds the optimizer request from settings. startFrom
// names a saved build order to seed the population; empty means none.
func (c *Controller) OptimizeRequest(startFrom string) client.OptimizeRequest {
	o := c.settings.Optimize
	req := client.OptimizeRequest{
		Goal:        o.Goal,
		TargetTime:  o.TargetTime,
		Duration:    o.Duration,
		Generations: o.Generations,
		PopSize:     o.PopSize,
		MapConfig:   c.settings.Map,
	}
	if startFrom != "" {
		req.StartFrom = &startFrom
	}
	return req
}

// RunOptimize starts an optimizer run and consumes its event stream until
// the stream ends, ctx is done or Cancel is called. Progress and the final
// result are rendered and emitted as they arrive. Controls are restored on
// every exit path.
func (c *Controller) RunOptimize(ctx context.Context, startFrom string) (*model.CompleteEvent, error) {
	restore, err := c.begin(true)
	if err != nil {
		return nil, err
	}
	defer restore()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.mu.Lock()
	c.cancel = cancel
	c.progress = nil
	c.fitness = nil
	capture := c.capture
	c.mu.Unlock()

	started := c.now()
	req := c.OptimizeRequest(startFrom)
	body, err := c.backend.Optimize(ctx, req)
	if err != nil {
		c.fail("optimize", err)
		return nil, fmt.Errorf("optimize: %w", err)
	}
	defer body.Close()

	var r io.Reader = body
	if capture != nil {
		r = capture.Tee(body)
	}

	var done *model.CompleteEvent
	dec := stream.NewOptimizeDecoder(stream.OptimizeHandlers{
		OnProgress: c.onProgress,
		OnComplete: func(ev model.CompleteEvent) {
			done = &ev
			c.onComplete(ev)
		},
	}).WithLogger(c.log)

	err = dec.Run(ctx, r)
	stats := dec.Stats()
	c.log.Debug("optimize stream closed", "dispatched", stats.Dispatched, "dropped", stats.Dropped, "unhandled", stats.Unhandled)
	switch {
	case errors.Is(err, context.Canceled):
		c.notify(NoticeInfo, "Optimization cancelled")
		return done, err
	case err != nil:
		c.fail("optimize stream", err)
		return done, fmt.Errorf("optimize stream: %w", err)
	case done == nil:
		c.fail("optimize", ErrIncompleteStream)
		return nil, ErrIncompleteStream
	}

	var best *float64
	if n := len(done.History); n > 0 {
		v := done.History[n-1]
		best = &v
	}
	c.finish(ctx, history.KindOptimize, started, &done.Result, best)
	return done, nil
}

// Cancel abandons the in-flight optimizer stream. The backend is not
// notified; it notices the closed connection.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel == nil {
		return false
	}
	c.cancel()
	return true
}

func (c *Controller) onProgress(p model.ProgressEvent) {
	c.mu.Lock()
	c.progress = &p
	c.fitness = append(c.fitness, p.BestScore)
	_, err := c.registry.Render(chart.IDFitness, chart.Fitness(c.fitness))
	c.mu.Unlock()
	if err != nil {
		c.log.Warn("render fitness chart failed", "error", err)
	}
	c.log.Debug("optimizer progress", "generation", p.Generation, "best", p.BestScore)
	c.emit(Event{Type: EventProgress, Progress: &p})
}

func (c *Controller) onComplete(ev model.CompleteEvent) {
	c.mu.Lock()
	c.optimized = &ev
	var err error
	if len(ev.History) > 0 {
		_, err = c.registry.Render(chart.IDFitness, chart.Fitness(ev.History))
	}
	c.mu.Unlock()
	if err != nil {
		c.log.Warn("render fitness chart failed", "error", err)
	}
	c.log.Info("optimizer complete", "build_order", ev.BuildOrder.Name, "generations", len(ev.History))
	c.emit(Event{Type: EventComplete, Complete: &ev})
}

// ShowOptimizedResult renders the economy and stored charts of the last
// optimizer result.
func (c *Controller) ShowOptimizedResult() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.optimized == nil {
		return ErrNoBuildOrder
	}
	res := &c.optimized.Result
	if _, err := c.registry.Render(chart.IDOptEco, chart.Economy(res)); err != nil {
		return err
	}
	_, err := c.registry.Render(chart.IDOptStored, chart.Stored(res))
	return err
}

// LoadOptimizedIntoEditor replaces the draft with the optimized build order.
func (c *Controller) LoadOptimizedIntoEditor() error {
	c.mu.Lock()
	opt := c.optimized
	c.mu.Unlock()
	if opt == nil {
		return ErrNoBuildOrder
	}
	return c.Apply(queueLoad(opt.BuildOrder))
}

// SaveOptimized saves the optimized build order under its slugged name.
func (c *Controller) SaveOptimized(ctx context.Context) (string, error) {
	c.mu.Lock()
	opt := c.optimized
	c.mu.Unlock()
	if opt == nil {
		return "", ErrNoBuildOrder
	}
	return c.save(ctx, opt.BuildOrder.Clone())
}

// ProgressText formats a progress event for display.
func ProgressText(p model.ProgressEvent) string {
	return fmt.Sprintf("Gen %d/%d | Best: %g | Gen best: %g | Mutation: %g | Stagnation: %d",
		p.Generation, p.TotalGenerations, p.BestScore, p.GenBest, p.MutationRate, p.Stagnation)
}
