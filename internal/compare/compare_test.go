package compare

import (
	"testing"

	"bodash/internal/model"
)

func intPtr(v int) *int { return &v }

func run(name string, ticks ...int) *model.SimulationResult {
	r := &model.SimulationResult{BuildOrderName: name}
	for _, t := range ticks {
		r.Snapshots = append(r.Snapshots, model.Snapshot{Tick: t, MetalIncome: float64(t) / 10, ArmyValueMetal: float64(t)})
	}
	return r
}

func TestSnapshotAt(t *testing.T) {
	r := run("a", 10, 20, 30)
	cases := []struct {
		tick   int
		want   int
		wantOK bool
	}{
		{5, 0, false},
		{10, 10, true},
		{25, 20, true},
		{30, 30, true},
		{1000, 30, true},
	}
	for _, c := range cases {
		s, ok := SnapshotAt(r, c.tick)
		if ok != c.wantOK || (ok && s.Tick != c.want) {
			t.Errorf("SnapshotAt(%d) = %d,%v want %d,%v", c.tick, s.Tick, ok, c.want, c.wantOK)
		}
	}
	if _, ok := SnapshotAt(run("empty"), 100); ok {
		t.Errorf("empty result should have no snapshot")
	}
}

func TestSnapshotAtMatchesLinearScan(t *testing.T) {
	r := run("a", 0, 3, 3, 7, 15, 60, 61)
	for tick := -1; tick < 70; tick++ {
		var want *model.Snapshot
		for i := range r.Snapshots {
			if r.Snapshots[i].Tick <= tick {
				want = &r.Snapshots[i]
			} else {
				break
			}
		}
		got, ok := SnapshotAt(r, tick)
		if (want != nil) != ok {
			t.Fatalf("tick %d: availability mismatch", tick)
		}
		if ok && got.Tick != want.Tick {
			t.Fatalf("tick %d: got %d want %d", tick, got.Tick, want.Tick)
		}
	}
}

func TestRaceWinner(t *testing.T) {
	cases := []struct {
		a, b *int
		want string
	}{
		{intPtr(60), intPtr(90), WinnerA},
		{intPtr(90), intPtr(60), WinnerB},
		{intPtr(60), intPtr(60), WinnerTie},
		{intPtr(60), nil, WinnerA},
		{nil, intPtr(60), WinnerB},
		{nil, nil, WinnerNone},
		{intPtr(0), intPtr(30), WinnerA},
		{intPtr(0), nil, WinnerA},
	}
	for _, c := range cases {
		if got := raceWinner(c.a, c.b); got != c.want {
			t.Errorf("raceWinner(%v,%v) = %s, want %s", c.a, c.b, got, c.want)
		}
	}
}

func TestRaceRows(t *testing.T) {
	a := run("A")
	a.Milestones = []model.Milestone{{Tick: 80, Event: "first_factory"}, {Tick: 0, Event: "first_scout"}}
	b := run("B")
	b.Milestones = []model.Milestone{{Tick: 70, Event: "first_factory"}}
	rows := Race(a, b)
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	want := []string{WinnerB, WinnerA, WinnerNone, WinnerNone}
	for i, w := range want {
		if rows[i].Winner != w {
			t.Errorf("%s winner = %s, want %s", rows[i].Event, rows[i].Winner, w)
		}
	}
}

func TestCompareView(t *testing.T) {
	a := run("Alpha", 0, 60, 120, 180, 240, 300)
	a.TotalMetalStallSeconds, a.TotalEnergyStallSeconds = 12, 3
	b := run("Beta", 200, 400)
	b.TotalMetalStallSeconds = 1
	v := Compare(a, b)
	if len(v.Overlays) != 4 {
		t.Fatalf("expected 4 overlays, got %d", len(v.Overlays))
	}
	ov := v.Overlays[0]
	if len(ov.Labels) != 6 || len(ov.A) != 6 || len(ov.B) != 2 {
		t.Fatalf("overlay lengths labels=%d a=%d b=%d", len(ov.Labels), len(ov.A), len(ov.B))
	}
	if ov.Labels[5] != "5:00" {
		t.Fatalf("labels should come from A, got %v", ov.Labels)
	}
	if len(v.Checkpoints) != 3 {
		t.Fatalf("checkpoints = %d", len(v.Checkpoints))
	}
	first := v.Checkpoints[0]
	if first.A == nil || first.A.Tick != 180 || first.B != nil {
		t.Fatalf("checkpoint 180 = %+v", first)
	}
	last := v.Checkpoints[2]
	if last.A == nil || last.A.Tick != 300 || last.B == nil || last.B.Tick != 400 {
		t.Fatalf("checkpoint 420 = %+v %+v", last.A, last.B)
	}
	if v.StallsA.Metal != 12 || v.StallsA.Energy != 3 || v.StallsB.Metal != 1 {
		t.Fatalf("stall totals = %+v %+v", v.StallsA, v.StallsB)
	}
}

func TestCompareCustomCheckpoints(t *testing.T) {
	v := Compare(run("a", 0, 10), run("b", 0, 10), 5)
	if len(v.Checkpoints) != 1 || v.Checkpoints[0].Tick != 5 {
		t.Fatalf("checkpoints = %+v", v.Checkpoints)
	}
}

func TestCategories(t *testing.T) {
	a := run("Alpha", 0, 300)
	a.TimeToFirstFactory = intPtr(90)
	a.TotalMetalStallSeconds = 20
	b := run("Beta", 0, 250)
	b.TimeToFirstFactory = nil
	b.TotalEnergyStallSeconds = 5

	got := Categories(a, b)
	byLabel := map[string]Category{}
	for _, c := range got {
		byLabel[c.Label] = c
	}
	if c := byLabel["Fastest Factory"]; c.Winner != WinnerA || c.Value != 90 {
		t.Errorf("fastest factory = %+v", c)
	}
	if c := byLabel["Best 5:00 eco"]; c.Winner != WinnerA || c.Value != 30 {
		t.Errorf("eco = %+v", c)
	}
	if c := byLabel["Least stalling"]; c.Winner != WinnerB || c.Name != "Beta" || c.Value != 5 {
		t.Errorf("stalling = %+v", c)
	}

	none := Categories(run("x"), run("y"))
	if none[0].Valid || none[0].Winner != WinnerNone {
		t.Errorf("factory category without data = %+v", none[0])
	}
	if none[3].Winner != WinnerA {
		t.Errorf("tied stalling should go to A, got %+v", none[3])
	}
}

func TestCategoriesCheckpointUnavailable(t *testing.T) {
	late := run("Late", 400)
	early := run("Early", 0)
	got := Categories(late, early)
	for _, c := range got[1:3] {
		if !c.Valid || c.Winner != WinnerB || c.Name != "Early" {
			t.Errorf("%s: run without a 5:00 snapshot should not win, got %+v", c.Label, c)
		}
	}

	got = Categories(run("x", 400), run("y", 500))
	for _, c := range got[1:3] {
		if c.Valid || c.Winner != WinnerNone {
			t.Errorf("%s: expected invalid category, got %+v", c.Label, c)
		}
	}
}
