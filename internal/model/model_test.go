package model

import "testing"

func TestFormatTick(t *testing.T) {
	cases := []struct {
		tick int
		want string
	}{
		{0, "0:00"},
		{5, "0:05"},
		{60, "1:00"},
		{185, "3:05"},
		{600, "10:00"},
	}
	for _, c := range cases {
		if got := FormatTick(c.tick); got != c.want {
			t.Errorf("FormatTick(%d) = %s, want %s", c.tick, got, c.want)
		}
	}
}

func TestFormatRate(t *testing.T) {
	if got := FormatRate(12.34); got != "12.3" {
		t.Errorf("FormatRate(12.34) = %s", got)
	}
	if got := FormatRate(1234.5); got != "1234" && got != "1235" {
		t.Errorf("FormatRate(1234.5) = %s", got)
	}
	if got := FormatOptionalTick(nil); got != "--" {
		t.Errorf("FormatOptionalTick(nil) = %s", got)
	}
}

func TestSortedMilestonesStable(t *testing.T) {
	r := &SimulationResult{Milestones: []Milestone{
		{Tick: 90, Event: "first_factory"},
		{Tick: 30, Event: "first_mex"},
		{Tick: 90, Event: "first_scout"},
	}}
	got := r.SortedMilestones()
	want := []string{"first_mex", "first_factory", "first_scout"}
	for i, w := range want {
		if got[i].Event != w {
			t.Fatalf("position %d = %s, want %s", i, got[i].Event, w)
		}
	}
	if r.Milestones[0].Event != "first_factory" {
		t.Fatalf("source slice was reordered")
	}
}

func TestStallDurationInclusive(t *testing.T) {
	s := StallEvent{StartTick: 10, EndTick: 14}
	if s.Duration() != 5 {
		t.Fatalf("duration = %d, want 5", s.Duration())
	}
}

func TestBuildOrderCloneIsDeep(t *testing.T) {
	b := BuildOrder{
		CommanderQueue: []string{"mex"},
		FactoryQueues:  map[string][]string{"factory_0": {"con"}},
	}
	c := b.Clone()
	c.CommanderQueue[0] = "wind"
	c.FactoryQueues["factory_0"][0] = "scout"
	if b.CommanderQueue[0] != "mex" || b.FactoryQueues["factory_0"][0] != "con" {
		t.Fatalf("clone shares storage with original: %+v", b)
	}
	if b.Empty() {
		t.Fatalf("expected non-empty build order")
	}
	if !(BuildOrder{}).Empty() {
		t.Fatalf("zero build order should be empty")
	}
}

func TestProgressPercent(t *testing.T) {
	p := ProgressEvent{Generation: 1, TotalGenerations: 3}
	if p.Percent() != 33 {
		t.Fatalf("percent = %d, want 33", p.Percent())
	}
	if (ProgressEvent{}).Percent() != 0 {
		t.Fatalf("zero total should give 0")
	}
}

func TestCatalogNameFallback(t *testing.T) {
	c := &Catalog{Units: map[string]UnitInfo{"armmex": {Name: "Metal Extractor"}}}
	if got := c.Name("armmex"); got != "Metal Extractor" {
		t.Errorf("Name(armmex) = %s", got)
	}
	if got := c.Name("unknown"); got != "unknown" {
		t.Errorf("Name(unknown) = %s", got)
	}
	var nilCat *Catalog
	if got := nilCat.Name("x"); got != "x" {
		t.Errorf("nil catalog Name = %s", got)
	}
}
