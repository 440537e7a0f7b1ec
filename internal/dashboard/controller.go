// Package dashboard owns the dashboard state: chart registry, queue editor,
// unit catalog and run controls. Every user action goes through a Controller.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"bodash/internal/chart"
	"bodash/internal/client"
	"bodash/internal/compare"
	"bodash/internal/config"
	"bodash/internal/export"
	"bodash/internal/history"
	"bodash/internal/model"
	"bodash/internal/queue"
)

var (
	// ErrEmptySelection is returned when a flow needs a build order selection.
	ErrEmptySelection = errors.New("no build order selected")
	// ErrNoBuildOrder is returned when there is no draft or optimized build order.
	ErrNoBuildOrder = errors.New("no build order available")
	// ErrBusy is returned when a run is started while another is in flight.
	ErrBusy = errors.New("a run is already in progress")
	// ErrIncompleteStream is returned when the optimizer stream ends without a result.
	ErrIncompleteStream = errors.New("optimizer stream ended without a result")
)

// Backend is the subset of the API client the controller uses.
type Backend interface {
	Simulate(ctx context.Context, req client.SimulateRequest) (*model.SimulationResult, error)
	Compare(ctx context.Context, req client.CompareRequest) ([]model.SimulationResult, error)
	Optimize(ctx context.Context, req client.OptimizeRequest) (io.ReadCloser, error)
	Units(ctx context.Context) (*model.Catalog, error)
	BuildOrders(ctx context.Context) ([]model.BuildOrderFile, error)
	BuildOrder(ctx context.Context, filename string) (*model.BuildOrder, error)
	Save(ctx context.Context, bo model.BuildOrder, filename string) (string, error)
}

// RunRecorder stores completed runs.
type RunRecorder interface {
	Record(ctx context.Context, r history.Run) error
}

// StreamCapture records raw optimizer stream bytes.
type StreamCapture interface {
	Tee(r io.Reader) io.Reader
}

// Controls is the state of the run and cancel controls.
type Controls struct {
	RunEnabled    bool `json:"run_enabled"`
	CancelVisible bool `json:"cancel_visible"`
}

// Settings are the request parameters taken from configuration.
type Settings struct {
	Duration      int
	DraftDuration int
	Checkpoints   []int
	Optimize      config.OptimizeConfig
	Map           model.MapConfig
}

// SettingsFromConfig extracts controller settings from cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Duration:      cfg.Simulate.Duration,
		DraftDuration: cfg.Simulate.Duration,
		Checkpoints:   append([]int(nil), cfg.Checkpoints...),
		Optimize:      cfg.Optimize,
		Map:           cfg.Map,
	}
}

// Controller is the single owner of dashboard state. Its methods are safe
// for concurrent use; backend requests run without holding the lock.
type Controller struct {
	mu sync.Mutex

	backend  Backend
	registry *chart.Registry
	editor   *queue.Editor
	catalog  *model.Catalog
	files    []model.BuildOrderFile
	settings Settings

	controls Controls
	cancel   context.CancelFunc

	last      *model.SimulationResult
	view      *compare.View
	progress  *model.ProgressEvent
	fitness   []float64
	optimized *model.CompleteEvent
	notices   []Notice

	writer    export.SnapshotWriter
	recorder  RunRecorder
	capture   StreamCapture
	listeners []func(Event)

	log *slog.Logger
	now func() time.Time
}

// New returns a controller with an empty editor and enabled run controls.
func New(backend Backend, registry *chart.Registry, settings Settings, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	if settings.DraftDuration <= 0 {
		settings.DraftDuration = settings.Duration
	}
	return &Controller{
		backend:  backend,
		registry: registry,
		editor:   queue.New(),
		settings: settings,
		controls: Controls{RunEnabled: true},
		log:      log,
		now:      time.Now,
	}
}

// SetWriter sets where snapshot rows of completed runs are exported.
func (c *Controller) SetWriter(w export.SnapshotWriter) {
	c.mu.Lock()
	c.writer = w
	c.mu.Unlock()
}

// SetRecorder sets the run history store.
func (c *Controller) SetRecorder(r RunRecorder) {
	c.mu.Lock()
	c.recorder = r
	c.mu.Unlock()
}

// SetCapture records every optimizer stream read through cp.
func (c *Controller) SetCapture(cp StreamCapture) {
	c.mu.Lock()
	c.capture = cp
	c.mu.Unlock()
}

// Subscribe registers fn for controller events. fn is called outside the
// controller lock, in emission order, from the goroutine running the flow.
func (c *Controller) Subscribe(fn func(Event)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Controls returns the current control state.
func (c *Controller) Controls() Controls {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controls
}

// LastResult returns the most recent single simulation result.
func (c *Controller) LastResult() *model.SimulationResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// LastComparison returns the most recent comparison view.
func (c *Controller) LastComparison() *compare.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Progress returns the latest optimizer progress event and the best
// fitness seen per generation so far.
func (c *Controller) Progress() (*model.ProgressEvent, []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress, append([]float64(nil), c.fitness...)
}

// Optimized returns the last optimizer result.
func (c *Controller) Optimized() *model.CompleteEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.optimized
}

// ChartIDs lists the live chart ids.
func (c *Controller) ChartIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.IDs()
}

// WritePNG renders the chart id to w.
func (c *Controller) WritePNG(id string, w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.WritePNG(id, w)
}

// Close releases every chart resource.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	return c.registry.Reset()
}

// LoadCatalog fetches the unit catalog.
func (c *Controller) LoadCatalog(ctx context.Context) (*model.Catalog, error) {
	cat, err := c.backend.Units(ctx)
	if err != nil {
		c.fail("load units", err)
		return nil, fmt.Errorf("load units: %w", err)
	}
	c.mu.Lock()
	c.catalog = cat
	c.mu.Unlock()
	return cat, nil
}

// Catalog returns the loaded unit catalog, or nil before LoadCatalog.
func (c *Controller) Catalog() *model.Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.catalog
}

// RefreshBuildOrders reloads the saved build order listing.
func (c *Controller) RefreshBuildOrders(ctx context.Context) ([]model.BuildOrderFile, error) {
	files, err := c.backend.BuildOrders(ctx)
	if err != nil {
		c.fail("list build orders", err)
		return nil, fmt.Errorf("list build orders: %w", err)
	}
	c.mu.Lock()
	c.files = files
	c.mu.Unlock()
	return files, nil
}

// BuildOrderFiles returns the last fetched build order listing.
func (c *Controller) BuildOrderFiles() []model.BuildOrderFile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.BuildOrderFile(nil), c.files...)
}

// begin disables the run control and returns the matching restore. The
// restore must run on every exit path.
func (c *Controller) begin(cancelable bool) (func(), error) {
	c.mu.Lock()
	if !c.controls.RunEnabled {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.controls = Controls{RunEnabled: false, CancelVisible: cancelable}
	ctl := c.controls
	c.mu.Unlock()
	c.emit(Event{Type: EventControls, Controls: &ctl})

	return func() {
		c.mu.Lock()
		c.controls = Controls{RunEnabled: true}
		c.cancel = nil
		ctl := c.controls
		c.mu.Unlock()
		c.emit(Event{Type: EventControls, Controls: &ctl})
	}, nil
}

// RunSimulate simulates the saved build order filename and renders the
// result charts.
func (c *Controller) RunSimulate(ctx context.Context, filename string) (*model.SimulationResult, error) {
	if filename == "" {
		c.notify(NoticeWarn, "Select a build order")
		return nil, ErrEmptySelection
	}
	return c.simulate(ctx, client.SimulateRequest{Filename: filename, Duration: c.settings.Duration})
}

// SimulateDraft simulates the editor's draft build order.
func (c *Controller) SimulateDraft(ctx context.Context) (*model.SimulationResult, error) {
	draft := c.Draft()
	if draft.Empty() {
		c.notify(NoticeWarn, "The draft build order is empty")
		return nil, ErrNoBuildOrder
	}
	return c.simulate(ctx, client.SimulateRequest{BuildOrder: &draft, Duration: c.settings.DraftDuration})
}

func (c *Controller) simulate(ctx context.Context, req client.SimulateRequest) (*model.SimulationResult, error) {
	restore, err := c.begin(false)
	if err != nil {
		return nil, err
	}
	defer restore()

	started := c.now()
	res, err := c.backend.Simulate(ctx, req)
	if err != nil {
		c.fail("simulate", err)
		return nil, fmt.Errorf("simulate: %w", err)
	}

	c.mu.Lock()
	err = c.registry.RenderAll(chart.ResultSet("", res))
	c.last = res
	c.mu.Unlock()
	if err != nil {
		c.fail("render charts", err)
		return res, fmt.Errorf("render charts: %w", err)
	}
	c.emit(Event{Type: EventResult, Result: res})
	c.finish(ctx, history.KindSimulate, started, res, nil)
	return res, nil
}

// RunCompare simulates the saved build orders a and b side by side, renders
// the overlay charts and returns the comparison.
func (c *Controller) RunCompare(ctx context.Context, a, b string) (*compare.View, error) {
	if a == "" || b == "" {
		c.notify(NoticeWarn, "Select two build orders")
		return nil, ErrEmptySelection
	}
	restore, err := c.begin(false)
	if err != nil {
		return nil, err
	}
	defer restore()

	started := c.now()
	results, err := c.backend.Compare(ctx, client.CompareRequest{Filenames: []string{a, b}, Duration: c.settings.Duration})
	if err != nil {
		c.fail("compare", err)
		return nil, fmt.Errorf("compare: %w", err)
	}
	if len(results) != 2 {
		err := fmt.Errorf("compare: expected 2 results, got %d", len(results))
		c.fail("compare", err)
		return nil, err
	}
	ra, rb := &results[0], &results[1]
	v := compare.Compare(ra, rb, c.settings.Checkpoints...)

	c.mu.Lock()
	for _, ov := range v.Overlays {
		if _, err = c.registry.Render(ov.ChartID, chart.Overlay(ov.Title, ov.Labels, v.NameA, ov.A, v.NameB, ov.B)); err != nil {
			break
		}
	}
	c.view = &v
	c.mu.Unlock()
	if err != nil {
		c.fail("render charts", err)
		return &v, fmt.Errorf("render charts: %w", err)
	}
	c.emit(Event{Type: EventComparison, Comparison: &v})
	c.finish(ctx, history.KindCompare, started, ra, nil)
	c.finish(ctx, history.KindCompare, started, rb, nil)
	return &v, nil
}

// finish exports and records a completed run. Failures here are reported
// as notices and never fail the run.
func (c *Controller) finish(ctx context.Context, kind string, started time.Time, res *model.SimulationResult, fitness *float64) {
	c.mu.Lock()
	w, rec := c.writer, c.recorder
	c.mu.Unlock()

	runID := export.NewRunID()
	log := c.log.With("run_id", runID, "kind", kind, "build_order", res.BuildOrderName)
	if w != nil {
		if err := export.WriteAll(w, export.SnapshotRows(runID, kind, started, res)); err != nil {
			log.Warn("export snapshots failed", "error", err)
			c.notify(NoticeWarn, "Export failed: "+err.Error())
		} else if sw, ok := w.(export.StallWriter); ok {
			if err := sw.WriteStalls(export.StallRows(runID, started, res)); err != nil {
				log.Warn("export stalls failed", "error", err)
			}
		}
	}
	if rec != nil {
		run := history.FromResult(runID, kind, started, c.now().Sub(started), res)
		run.Fitness = fitness
		if err := rec.Record(ctx, run); err != nil {
			log.Warn("record history failed", "error", err)
		}
	}
	log.Info("run complete", "snapshots", len(res.Snapshots))
}
