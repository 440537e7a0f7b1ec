package export

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"

	"bodash/internal/model"
)

func sampleResult() *model.SimulationResult {
	return &model.SimulationResult{
		BuildOrderName: "Opener",
		Snapshots: []model.Snapshot{
			{Tick: 0, MetalIncome: 2, EnergyIncome: 25},
			{Tick: 5, MetalIncome: 4.5, EnergyIncome: 30, BuildPower: 300},
		},
		StallEvents: []model.StallEvent{{StartTick: 3, EndTick: 6, Resource: model.ResourceEnergy, Severity: 0.4}},
	}
}

type collectWriter struct {
	rows   []SnapshotRow
	stalls []StallRow
}

func (c *collectWriter) Write(r SnapshotRow) error {
	c.rows = append(c.rows, r)
	return nil
}

func (c *collectWriter) WriteStalls(rows []StallRow) error {
	c.stalls = append(c.stalls, rows...)
	return nil
}

type plainWriter struct{ n int }

func (p *plainWriter) Write(SnapshotRow) error { p.n++; return nil }

func TestSnapshotRows(t *testing.T) {
	start := time.Unix(1000, 0).UTC()
	rows := SnapshotRows("run-1", "simulate", start, sampleResult())
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[1].Tick != 5 || rows[1].BuildOrder != "Opener" || rows[1].Source != "simulate" {
		t.Fatalf("unexpected row: %+v", rows[1])
	}
	if !rows[1].Timestamp.Equal(start.Add(5 * time.Second)) {
		t.Fatalf("timestamp = %v", rows[1].Timestamp)
	}
	stalls := StallRows("run-1", start, sampleResult())
	if len(stalls) != 1 || stalls[0].Resource != model.ResourceEnergy {
		t.Fatalf("unexpected stalls: %+v", stalls)
	}
}

func TestNewRunIDUnique(t *testing.T) {
	if NewRunID() == NewRunID() {
		t.Fatalf("expected distinct run ids")
	}
}

func TestMultiWriterFanOut(t *testing.T) {
	a := &collectWriter{}
	b := &plainWriter{}
	mw := NewMultiWriter(a, b)
	rows := SnapshotRows("r", "simulate", time.Unix(0, 0), sampleResult())
	if err := WriteAll(mw, rows); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	if len(a.rows) != 2 || b.n != 2 {
		t.Fatalf("rows not fanned out: %d %d", len(a.rows), b.n)
	}
	if err := mw.WriteStalls([]StallRow{{RunID: "r"}}); err != nil {
		t.Fatalf("WriteStalls: %v", err)
	}
	if len(a.stalls) != 1 {
		t.Fatalf("stall rows not forwarded")
	}
}

func TestFileWriter(t *testing.T) {
	dir := t.TempDir()
	snapPath := filepath.Join(dir, "snapshots.jsonl")
	stallPath := filepath.Join(dir, "stalls.jsonl")
	fw, err := NewFileWriter(snapPath, stallPath)
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	start := time.Unix(0, 0).UTC()
	if err := WriteAll(fw, SnapshotRows("r", "compare", start, sampleResult())); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := fw.WriteStalls(StallRows("r", start, sampleResult())); err != nil {
		t.Fatalf("stalls: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := os.Open(snapPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	var got []SnapshotRow
	for sc.Scan() {
		var r SnapshotRow
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			t.Fatalf("decode: %v", err)
		}
		got = append(got, r)
	}
	if len(got) != 2 || got[1].MetalIncome != 4.5 {
		t.Fatalf("unexpected rows: %+v", got)
	}

	b, err := os.ReadFile(stallPath)
	if err != nil {
		t.Fatalf("read stalls: %v", err)
	}
	if !strings.Contains(string(b), `"resource":"energy"`) {
		t.Fatalf("stall file missing row: %s", b)
	}
}

func TestFileWriterWithoutStalls(t *testing.T) {
	fw, err := NewFileWriter(filepath.Join(t.TempDir(), "s.jsonl"), "")
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	defer fw.Close()
	if err := fw.WriteStalls([]StallRow{{RunID: "r"}}); err != nil {
		t.Fatalf("expected stall rows to be skipped, got %v", err)
	}
}

func TestJSONStdoutWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &JSONStdoutWriter{out: &buf}
	if err := w.Write(SnapshotRow{RunID: "r", Tick: 7}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(buf.String(), `"tick":7`) || !strings.HasSuffix(buf.String(), "\n") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

type mockGreptimeClient struct {
	tables []*table.Table
}

func (m *mockGreptimeClient) Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error) {
	m.tables = append(m.tables, tables...)
	return &gpb.GreptimeResponse{}, nil
}

func TestGreptimeWriterSnapshots(t *testing.T) {
	m := &mockGreptimeClient{}
	w := &GreptimeDBWriter{client: m, table: "bo_snapshots", stallTable: "bo_snapshots_stalls"}
	rows := SnapshotRows("run-9", "simulate", time.Unix(0, 0).UTC(), sampleResult())
	if err := w.WriteBatch(rows); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	if len(m.tables) != 1 {
		t.Fatalf("expected one table write, got %d", len(m.tables))
	}
	got := m.tables[0].GetRows()
	if len(got.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got.Rows))
	}
	if id := got.Rows[0].Values[0].GetStringValue(); id != "run-9" {
		t.Fatalf("run_id = %q", id)
	}
	if got.Schema[0].SemanticType != gpb.SemanticType_TAG {
		t.Fatalf("run_id should be a tag column")
	}
}

func TestGreptimeWriterStalls(t *testing.T) {
	m := &mockGreptimeClient{}
	w := &GreptimeDBWriter{client: m, table: "bo_snapshots", stallTable: "bo_snapshots_stalls"}
	if err := w.WriteStalls(nil); err != nil || len(m.tables) != 0 {
		t.Fatalf("empty stall batch should be a no-op")
	}
	if err := w.WriteStalls(StallRows("r", time.Unix(0, 0), sampleResult())); err != nil {
		t.Fatalf("WriteStalls: %v", err)
	}
	if name, _ := m.tables[0].GetName(); name != "bo_snapshots_stalls" {
		t.Fatalf("table = %q", name)
	}
	if res := m.tables[0].GetRows().Rows[0].Values[2].GetStringValue(); res != model.ResourceEnergy {
		t.Fatalf("resource = %q", res)
	}
}

func TestSplitEndpoint(t *testing.T) {
	cases := []struct {
		in   string
		host string
		port int
		err  bool
	}{
		{"localhost", "localhost", defaultGreptimePort, false},
		{"db.local:4002", "db.local", 4002, false},
		{"db:x", "", 0, true},
		{"", "", 0, true},
	}
	for _, c := range cases {
		host, port, err := splitEndpoint(c.in)
		if c.err {
			if err == nil {
				t.Errorf("%q: expected error", c.in)
			}
			continue
		}
		if err != nil || host != c.host || port != c.port {
			t.Errorf("%q: got %s %d %v", c.in, host, port, err)
		}
	}
}

func TestRecordAndReplayStream(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.jsonl")
	rec, err := NewStreamRecorder(path)
	if err != nil {
		t.Fatalf("recorder: %v", err)
	}
	src := "event: progress\ndata: {\"generation\":1}\n\nevent: complete\ndata: {}\n\n"
	r := rec.Tee(strings.NewReader(src))
	var sink bytes.Buffer
	buf := make([]byte, 7)
	for {
		n, err := r.Read(buf)
		sink.Write(buf[:n])
		if err != nil {
			break
		}
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if sink.String() != src {
		t.Fatalf("tee altered the stream")
	}

	var out bytes.Buffer
	if err := ReplayStreamFile(context.Background(), path, &out, 0); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if out.String() != src {
		t.Fatalf("replayed %q, want %q", out.String(), src)
	}
}

func TestReplayStreamSkipsBlankLines(t *testing.T) {
	in := "{\"ts\":\"2025-01-01T00:00:00Z\",\"data\":\"a\"}\n\n  \n{\"ts\":\"2025-01-01T00:00:01Z\",\"data\":\"b\"}"
	var out bytes.Buffer
	if err := ReplayStream(context.Background(), strings.NewReader(in), &out, 0); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if out.String() != "ab" {
		t.Fatalf("replayed %q", out.String())
	}
	if err := ReplayStream(context.Background(), strings.NewReader("{not json}\n"), &out, 0); err == nil {
		t.Fatalf("expected error for a malformed line")
	}
}

func TestReplayStreamCancelled(t *testing.T) {
	var in bytes.Buffer
	enc := json.NewEncoder(&in)
	enc.Encode(StreamChunk{Timestamp: time.Unix(0, 0), Data: "a"})
	enc.Encode(StreamChunk{Timestamp: time.Unix(60, 0), Data: "b"})
	ctx, cancel := context.WithCancel(context.Background())
	var out bytes.Buffer
	done := make(chan error, 1)
	go func() { done <- ReplayStream(ctx, &in, &out, 1) }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("replay did not stop")
	}
	if out.String() != "a" {
		t.Fatalf("expected only the first chunk, got %q", out.String())
	}
}
