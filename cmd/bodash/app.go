package main

import (
	"context"
	"log/slog"

	"bodash/internal/chart"
	"bodash/internal/client"
	"bodash/internal/config"
	"bodash/internal/dashboard"
	"bodash/internal/export"
	"bodash/internal/history"
)

// appOptions select the optional sinks wired into the controller.
type appOptions struct {
	printOnly bool
	logFile   string
	capture   string
	noHistory bool
}

// app is a controller with its backend client and every sink it writes to.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	client  *client.Client
	ctl     *dashboard.Controller
	history *history.Store
	closers []func()
}

func newApp(cfg *config.Config, log *slog.Logger, opts appOptions) (*app, error) {
	c := client.New(cfg.BackendURL, cfg.RequestTimeout, log)
	reg := chart.NewRegistry(chart.GoChartBackend{Width: cfg.Chart.Width, Height: cfg.Chart.Height}, log)
	ctl := dashboard.New(c, reg, dashboard.SettingsFromConfig(cfg), log)
	a := &app{cfg: cfg, log: log, client: c, ctl: ctl}
	a.closers = append(a.closers, func() {
		if err := ctl.Close(); err != nil {
			log.Warn("release charts failed", "error", err)
		}
	})

	w, cleanup, err := newWriters(cfg.Export, opts.printOnly, opts.logFile, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, cleanup)
	if w != nil {
		ctl.SetWriter(w)
	}

	if !opts.noHistory && cfg.HistoryDB != "" {
		st, err := history.Open(cfg.HistoryDB)
		if err != nil {
			log.Warn("run history disabled", "path", cfg.HistoryDB, "error", err)
		} else {
			a.history = st
			ctl.SetRecorder(st)
			a.closers = append(a.closers, func() { st.Close() })
		}
	}

	if opts.capture != "" {
		rec, err := export.NewStreamRecorder(opts.capture)
		if err != nil {
			a.Close()
			return nil, err
		}
		ctl.SetCapture(rec)
		a.closers = append(a.closers, func() { rec.Close() })
	}

	log.Debug("dashboard ready", "backend", cfg.BackendURL)
	return a, nil
}

// loadCatalog fetches the unit catalog and build order listing. Failures are
// logged; reports fall back to raw unit keys.
func (a *app) loadCatalog(ctx context.Context) {
	if _, err := a.ctl.LoadCatalog(ctx); err != nil {
		a.log.Warn("unit catalog unavailable", "error", err)
	}
	if _, err := a.ctl.RefreshBuildOrders(ctx); err != nil {
		a.log.Warn("build order listing unavailable", "error", err)
	}
}

// Close runs the closers in reverse order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
