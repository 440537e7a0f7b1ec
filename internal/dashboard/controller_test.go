package dashboard

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"bodash/internal/chart"
	"bodash/internal/client"
	"bodash/internal/config"
	"bodash/internal/export"
	"bodash/internal/history"
	"bodash/internal/logging"
	"bodash/internal/model"
	"bodash/internal/queue"
)

type fakeResource struct{ released bool }

func (f *fakeResource) Release() error { f.released = true; return nil }

func (f *fakeResource) RenderPNG(w io.Writer) error {
	_, err := io.WriteString(w, "\x89PNG fake")
	return err
}

type fakeCharts struct{}

func (fakeCharts) Materialize(id string, spec chart.Spec) (chart.Resource, error) {
	return &fakeResource{}, nil
}

type fakeBackend struct {
	mu        sync.Mutex
	calls     []string
	result    *model.SimulationResult
	results   []model.SimulationResult
	err       error
	stream    string
	optimize  func(ctx context.Context) (io.ReadCloser, error)
	saved     []string
	lastSim   client.SimulateRequest
	lastOpt   client.OptimizeRequest
	buildOrds map[string]model.BuildOrder
}

func (f *fakeBackend) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeBackend) Simulate(ctx context.Context, req client.SimulateRequest) (*model.SimulationResult, error) {
	f.record("simulate")
	f.lastSim = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeBackend) Compare(ctx context.Context, req client.CompareRequest) ([]model.SimulationResult, error) {
	f.record("compare")
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func (f *fakeBackend) Optimize(ctx context.Context, req client.OptimizeRequest) (io.ReadCloser, error) {
	f.record("optimize")
	f.lastOpt = req
	if f.err != nil {
		return nil, f.err
	}
	if f.optimize != nil {
		return f.optimize(ctx)
	}
	return io.NopCloser(strings.NewReader(f.stream)), nil
}

func (f *fakeBackend) Units(ctx context.Context) (*model.Catalog, error) {
	f.record("units")
	return &model.Catalog{Units: map[string]model.UnitInfo{"mex": {Name: "Metal Extractor"}}}, nil
}

func (f *fakeBackend) BuildOrders(ctx context.Context) ([]model.BuildOrderFile, error) {
	f.record("build-orders")
	return []model.BuildOrderFile{{Filename: "a.yaml", Stem: "a"}}, nil
}

func (f *fakeBackend) BuildOrder(ctx context.Context, filename string) (*model.BuildOrder, error) {
	f.record("build-order")
	bo, ok := f.buildOrds[filename]
	if !ok {
		return nil, &client.StatusError{StatusCode: 404}
	}
	return &bo, nil
}

func (f *fakeBackend) Save(ctx context.Context, bo model.BuildOrder, filename string) (string, error) {
	f.record("save")
	f.saved = append(f.saved, filename)
	return filename, nil
}

type fakeRecorder struct{ runs []history.Run }

func (f *fakeRecorder) Record(ctx context.Context, r history.Run) error {
	f.runs = append(f.runs, r)
	return nil
}

type collectWriter struct{ rows []export.SnapshotRow }

func (c *collectWriter) Write(r export.SnapshotRow) error {
	c.rows = append(c.rows, r)
	return nil
}

func result(name string) *model.SimulationResult {
	return &model.SimulationResult{
		BuildOrderName: name,
		Snapshots: []model.Snapshot{
			{Tick: 0, MetalIncome: 2},
			{Tick: 300, MetalIncome: 10, ArmyValueMetal: 500},
		},
		StallEvents: []model.StallEvent{{StartTick: 10, EndTick: 20, Resource: model.ResourceMetal, Severity: 0.5}},
		Milestones:  []model.Milestone{{Tick: 60, Event: "first_factory"}},
	}
}

func optimizeSettings() config.OptimizeConfig {
	return config.Default().Optimize
}

func newController(b Backend) *Controller {
	reg := chart.NewRegistry(fakeCharts{}, logging.Discard())
	return New(b, reg, Settings{Duration: 600, Optimize: optimizeSettings()}, logging.Discard())
}

func assertRestored(t *testing.T, c *Controller) {
	t.Helper()
	if got := c.Controls(); got != (Controls{RunEnabled: true}) {
		t.Fatalf("controls not restored: %+v", got)
	}
}

func TestRunSimulateEmptySelection(t *testing.T) {
	b := &fakeBackend{}
	c := newController(b)
	if _, err := c.RunSimulate(context.Background(), ""); !errors.Is(err, ErrEmptySelection) {
		t.Fatalf("expected ErrEmptySelection, got %v", err)
	}
	if len(b.calls) != 0 {
		t.Fatalf("no request should be issued, got %v", b.calls)
	}
	if n := c.Notices(); len(n) != 1 || n[0].Level != NoticeWarn {
		t.Fatalf("expected one warning notice, got %+v", n)
	}
	assertRestored(t, c)
}

func TestRunSimulateRendersAndRecords(t *testing.T) {
	b := &fakeBackend{result: result("Opener")}
	c := newController(b)
	rec := &fakeRecorder{}
	w := &collectWriter{}
	c.SetRecorder(rec)
	c.SetWriter(w)

	res, err := c.RunSimulate(context.Background(), "opener.yaml")
	if err != nil {
		t.Fatalf("RunSimulate: %v", err)
	}
	if res.BuildOrderName != "Opener" || b.lastSim.Filename != "opener.yaml" || b.lastSim.Duration != 600 {
		t.Fatalf("unexpected request/result: %+v %+v", b.lastSim, res)
	}
	ids := strings.Join(c.ChartIDs(), ",")
	if ids != "bp-army,economy,stall,stored" {
		t.Fatalf("charts = %s", ids)
	}
	if len(rec.runs) != 1 || rec.runs[0].Kind != history.KindSimulate {
		t.Fatalf("history not recorded: %+v", rec.runs)
	}
	if len(w.rows) != 2 || w.rows[0].RunID != rec.runs[0].ID {
		t.Fatalf("snapshots not exported under the run id: %+v", w.rows)
	}
	assertRestored(t, c)

	// a second run replaces charts rather than adding more
	if _, err := c.RunSimulate(context.Background(), "opener.yaml"); err != nil {
		t.Fatalf("RunSimulate again: %v", err)
	}
	if len(c.ChartIDs()) != 4 {
		t.Fatalf("expected 4 live charts, got %v", c.ChartIDs())
	}
}

func TestRunSimulateWithoutSnapshots(t *testing.T) {
	b := &fakeBackend{result: &model.SimulationResult{BuildOrderName: "Idle"}}
	reg := chart.NewRegistry(chart.GoChartBackend{Width: 320, Height: 160}, logging.Discard())
	c := New(b, reg, Settings{Duration: 600, Optimize: optimizeSettings()}, logging.Discard())

	if _, err := c.RunSimulate(context.Background(), "idle.yaml"); err != nil {
		t.Fatalf("RunSimulate: %v", err)
	}
	if len(c.ChartIDs()) != 4 {
		t.Fatalf("expected placeholder charts, got %v", c.ChartIDs())
	}
	assertRestored(t, c)
}

func TestRunSimulateErrorRestoresControls(t *testing.T) {
	b := &fakeBackend{err: &client.StatusError{Path: "/simulate", StatusCode: 500}}
	c := newController(b)
	_, err := c.RunSimulate(context.Background(), "x.yaml")
	var se *client.StatusError
	if !errors.As(err, &se) || se.StatusCode != 500 {
		t.Fatalf("expected wrapped StatusError, got %v", err)
	}
	assertRestored(t, c)
	if n := c.Notices(); len(n) == 0 || n[len(n)-1].Level != NoticeError {
		t.Fatalf("expected error notice")
	}
}

func TestSimulateDraft(t *testing.T) {
	b := &fakeBackend{result: result("Draft")}
	c := newController(b)
	if _, err := c.SimulateDraft(context.Background()); !errors.Is(err, ErrNoBuildOrder) {
		t.Fatalf("expected ErrNoBuildOrder for empty draft, got %v", err)
	}
	if err := c.Apply(queue.AppendCmd{Lane: queue.LaneCommander, Key: "mex"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, err := c.SimulateDraft(context.Background()); err != nil {
		t.Fatalf("SimulateDraft: %v", err)
	}
	if b.lastSim.BuildOrder == nil || b.lastSim.BuildOrder.CommanderQueue[0] != "mex" {
		t.Fatalf("draft not sent: %+v", b.lastSim)
	}
}

func TestRunCompare(t *testing.T) {
	b := &fakeBackend{results: []model.SimulationResult{*result("A"), *result("B")}}
	c := newController(b)
	if _, err := c.RunCompare(context.Background(), "a.yaml", ""); !errors.Is(err, ErrEmptySelection) {
		t.Fatalf("expected ErrEmptySelection, got %v", err)
	}
	v, err := c.RunCompare(context.Background(), "a.yaml", "b.yaml")
	if err != nil {
		t.Fatalf("RunCompare: %v", err)
	}
	if v.NameA != "A" || v.NameB != "B" || len(v.Checkpoints) != 3 {
		t.Fatalf("unexpected view: %+v", v)
	}
	for _, id := range []string{chart.IDCmpMetal, chart.IDCmpEnergy, chart.IDCmpArmy, chart.IDCmpBP} {
		found := false
		for _, got := range c.ChartIDs() {
			found = found || got == id
		}
		if !found {
			t.Errorf("missing chart %s", id)
		}
	}
	if c.LastComparison() != v {
		t.Fatalf("comparison not retained")
	}
	assertRestored(t, c)
}

func TestRunCompareWrongResultCount(t *testing.T) {
	b := &fakeBackend{results: []model.SimulationResult{*result("A")}}
	c := newController(b)
	if _, err := c.RunCompare(context.Background(), "a", "b"); err == nil {
		t.Fatalf("expected error for a single result")
	}
	assertRestored(t, c)
}

const optimizeStream = "event: progress\ndata: {\"generation\":1,\"total_generations\":2,\"best_score\":10}\n\n" +
	": keep-alive\n\nevent: ping\ndata: {}\n\n" +
	"event: progress\ndata: {\"generation\":2,\"total_generations\":2,\"best_score\":12}\n\n" +
	"event: complete\ndata: {\"build_order\":{\"name\":\"Optimized\",\"commander_queue\":[\"mex\",\"wind\"]},\"history\":[10,12],\"result\":{\"build_order_name\":\"Optimized\",\"snapshots\":[{\"tick\":0},{\"tick\":1}]}}\n\n"

func TestRunOptimize(t *testing.T) {
	b := &fakeBackend{stream: optimizeStream}
	c := newController(b)
	rec := &fakeRecorder{}
	c.SetRecorder(rec)
	var types []string
	c.Subscribe(func(ev Event) { types = append(types, ev.Type) })

	done, err := c.RunOptimize(context.Background(), "seed.yaml")
	if err != nil {
		t.Fatalf("RunOptimize: %v", err)
	}
	if b.lastOpt.StartFrom == nil || *b.lastOpt.StartFrom != "seed.yaml" || b.lastOpt.Goal != "max_metal" {
		t.Fatalf("unexpected request: %+v", b.lastOpt)
	}
	if done.BuildOrder.Name != "Optimized" {
		t.Fatalf("complete = %+v", done)
	}
	p, fitness := c.Progress()
	if p == nil || p.Generation != 2 || len(fitness) != 2 {
		t.Fatalf("progress = %+v fitness = %v", p, fitness)
	}
	if h, ok := c.registry.Get(chart.IDFitness); !ok || len(h.Spec.Labels) != 2 {
		t.Fatalf("fitness chart missing or wrong")
	}
	want := "controls,progress,progress,complete,controls"
	if got := strings.Join(types, ","); got != want {
		t.Fatalf("events = %s, want %s", got, want)
	}
	if len(rec.runs) != 1 || rec.runs[0].Fitness == nil || *rec.runs[0].Fitness != 12 {
		t.Fatalf("optimize run not recorded with fitness: %+v", rec.runs)
	}
	assertRestored(t, c)

	if err := c.ShowOptimizedResult(); err != nil {
		t.Fatalf("ShowOptimizedResult: %v", err)
	}
	if _, ok := c.registry.Get(chart.IDOptEco); !ok {
		t.Fatalf("optimized economy chart not rendered")
	}
}

func TestRunOptimizeErrorRestoresControls(t *testing.T) {
	b := &fakeBackend{err: errors.New("connection refused")}
	c := newController(b)
	if _, err := c.RunOptimize(context.Background(), ""); err == nil {
		t.Fatalf("expected error")
	}
	if b.lastOpt.StartFrom != nil {
		t.Fatalf("empty start_from should be null")
	}
	assertRestored(t, c)
}

func TestRunOptimizeIncompleteStream(t *testing.T) {
	b := &fakeBackend{stream: "event: progress\ndata: {\"generation\":1}\n\nevent: complete\ndata: {trunc"}
	c := newController(b)
	if _, err := c.RunOptimize(context.Background(), ""); !errors.Is(err, ErrIncompleteStream) {
		t.Fatalf("expected ErrIncompleteStream, got %v", err)
	}
	assertRestored(t, c)
}

func TestCancelOptimize(t *testing.T) {
	b := &fakeBackend{}
	b.optimize = func(ctx context.Context) (io.ReadCloser, error) {
		pr, pw := io.Pipe()
		go func() {
			io.WriteString(pw, "event: progress\ndata: {\"generation\":1,\"total_generations\":5}\n\n")
			<-ctx.Done()
			pw.CloseWithError(ctx.Err())
		}()
		return pr, nil
	}
	c := newController(b)
	var during Controls
	var busyErr error
	c.Subscribe(func(ev Event) {
		if ev.Type != EventProgress {
			return
		}
		during = c.Controls()
		_, busyErr = c.RunSimulate(context.Background(), "x.yaml")
		if !c.Cancel() {
			t.Errorf("Cancel reported no run in flight")
		}
	})
	_, err := c.RunOptimize(context.Background(), "")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if during != (Controls{RunEnabled: false, CancelVisible: true}) {
		t.Fatalf("controls during run = %+v", during)
	}
	if !errors.Is(busyErr, ErrBusy) {
		t.Fatalf("expected ErrBusy while optimizing, got %v", busyErr)
	}
	assertRestored(t, c)
	if c.Cancel() {
		t.Fatalf("Cancel after completion should be a no-op")
	}
}

func TestEditorFlows(t *testing.T) {
	b := &fakeBackend{
		stream:    optimizeStream,
		buildOrds: map[string]model.BuildOrder{"saved.yaml": {Name: "Saved", CommanderQueue: []string{"wind"}}},
	}
	c := newController(b)
	ctx := context.Background()

	if _, err := c.SaveDraft(ctx); !errors.Is(err, ErrNoBuildOrder) {
		t.Fatalf("expected ErrNoBuildOrder, got %v", err)
	}
	if err := c.LoadOptimizedIntoEditor(); !errors.Is(err, ErrNoBuildOrder) {
		t.Fatalf("expected ErrNoBuildOrder, got %v", err)
	}

	if err := c.LoadIntoEditor(ctx, "saved.yaml"); err != nil {
		t.Fatalf("LoadIntoEditor: %v", err)
	}
	if d := c.Draft(); d.Name != "Saved" || d.CommanderQueue[0] != "wind" {
		t.Fatalf("draft = %+v", d)
	}
	if err := c.Apply(queue.RenameCmd{Name: "My Wind Build!"}); err != nil {
		t.Fatalf("rename: %v", err)
	}
	name, err := c.SaveDraft(ctx)
	if err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	if name != "my_wind_build_.yaml" {
		t.Fatalf("filename = %q", name)
	}

	if _, err := c.RunOptimize(ctx, ""); err != nil {
		t.Fatalf("RunOptimize: %v", err)
	}
	if err := c.LoadOptimizedIntoEditor(); err != nil {
		t.Fatalf("LoadOptimizedIntoEditor: %v", err)
	}
	lane, _ := c.Lane(queue.LaneCommander)
	if strings.Join(lane, ",") != "mex,wind" {
		t.Fatalf("commander lane = %v", lane)
	}
	if _, err := c.SaveOptimized(ctx); err != nil {
		t.Fatalf("SaveOptimized: %v", err)
	}
	if b.saved[len(b.saved)-1] != "optimized.yaml" {
		t.Fatalf("saved = %v", b.saved)
	}
	if len(c.BuildOrderFiles()) != 1 {
		t.Fatalf("listing not refreshed after save")
	}
}

func TestLabelFallsBackToKey(t *testing.T) {
	c := newController(&fakeBackend{})
	if got := c.Label("mex"); got != "mex" {
		t.Fatalf("label before catalog = %q", got)
	}
	if _, err := c.LoadCatalog(context.Background()); err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if got := c.Label("mex"); got != "Metal Extractor" {
		t.Fatalf("label = %q", got)
	}
	if got := c.Label("unknown"); got != "unknown" {
		t.Fatalf("label = %q", got)
	}
}

func TestExportCharts(t *testing.T) {
	c := newController(&fakeBackend{result: result("A")})
	if _, err := c.RunSimulate(context.Background(), "a.yaml"); err != nil {
		t.Fatalf("RunSimulate: %v", err)
	}
	dir := filepath.Join(t.TempDir(), "charts")
	paths, err := c.ExportCharts(dir)
	if err != nil {
		t.Fatalf("ExportCharts: %v", err)
	}
	if len(paths) != 4 {
		t.Fatalf("expected 4 files, got %v", paths)
	}
	b, err := os.ReadFile(filepath.Join(dir, "economy.png"))
	if err != nil || !strings.HasPrefix(string(b), "\x89PNG") {
		t.Fatalf("economy.png not written: %v", err)
	}
}

func TestProgressText(t *testing.T) {
	got := ProgressText(model.ProgressEvent{Generation: 3, TotalGenerations: 50, BestScore: 12.5, GenBest: 11, MutationRate: 0.2, Stagnation: 1})
	want := "Gen 3/50 | Best: 12.5 | Gen best: 11 | Mutation: 0.2 | Stagnation: 1"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
