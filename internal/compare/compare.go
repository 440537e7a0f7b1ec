// Package compare aligns two simulation results for side by side display.
package compare

import (
	"sort"

	"bodash/internal/model"
)

// Winner labels.
const (
	WinnerA    = "A"
	WinnerB    = "B"
	WinnerTie  = "Tie"
	WinnerNone = "--"
)

// DefaultCheckpoints are the ticks sampled for the economy table.
var DefaultCheckpoints = []int{180, 300, 420}

// RaceMilestones are the milestones compared between runs, in display order.
var RaceMilestones = []struct{ Event, Label string }{
	{"first_factory", "First Factory"},
	{"first_scout", "First Scout"},
	{"first_constructor", "First Constructor"},
	{"first_nano", "First Nano"},
}

// OverlayMetric names one of the compared time series.
type OverlayMetric struct {
	ChartID string
	Title   string
	Field   func(model.Snapshot) float64
}

// OverlayMetrics are plotted for both runs against A's labels.
var OverlayMetrics = []OverlayMetric{
	{"chart-cmp-metal", "Metal Income", model.MetalIncome},
	{"chart-cmp-energy", "Energy Income", model.EnergyIncome},
	{"chart-cmp-army", "Army Value", model.ArmyValueMetal},
	{"chart-cmp-bp", "Build Power", model.BuildPower},
}

// Overlay is one metric for both runs. Labels come from A; series are not
// resampled so B may be shorter or longer than Labels.
type Overlay struct {
	OverlayMetric
	Labels []string
	A, B   []float64
}

// RaceRow is one milestone of the race table.
type RaceRow struct {
	Event  string
	Label  string
	TickA  *int
	TickB  *int
	Winner string
}

// CheckpointRow samples both runs at one checkpoint.
type CheckpointRow struct {
	Tick int
	A, B *model.Snapshot
}

// StallTotals are the per-resource stall seconds of one run.
type StallTotals struct {
	Metal  int
	Energy int
}

// Category is a best-of result for one metric.
type Category struct {
	Label  string
	Winner string
	Name   string
	Value  float64
	Valid  bool
}

// View is the full comparison of two runs.
type View struct {
	NameA, NameB string
	Overlays     []Overlay
	Race         []RaceRow
	Checkpoints  []CheckpointRow
	StallsA      StallTotals
	StallsB      StallTotals
	Categories   []Category
}

// Compare builds the comparison view of a and b using checkpoints, or
// DefaultCheckpoints when none are given.
func Compare(a, b *model.SimulationResult, checkpoints ...int) View {
	if len(checkpoints) == 0 {
		checkpoints = DefaultCheckpoints
	}
	v := View{
		NameA:   a.BuildOrderName,
		NameB:   b.BuildOrderName,
		StallsA: StallTotals{Metal: a.TotalMetalStallSeconds, Energy: a.TotalEnergyStallSeconds},
		StallsB: StallTotals{Metal: b.TotalMetalStallSeconds, Energy: b.TotalEnergyStallSeconds},
	}
	labels := model.FormatTicks(a.Ticks())
	for _, m := range OverlayMetrics {
		v.Overlays = append(v.Overlays, Overlay{
			OverlayMetric: m,
			Labels:        labels,
			A:             a.Series(m.Field),
			B:             b.Series(m.Field),
		})
	}
	v.Race = Race(a, b)
	for _, t := range checkpoints {
		row := CheckpointRow{Tick: t}
		if s, ok := SnapshotAt(a, t); ok {
			row.A = &s
		}
		if s, ok := SnapshotAt(b, t); ok {
			row.B = &s
		}
		v.Checkpoints = append(v.Checkpoints, row)
	}
	v.Categories = Categories(a, b)
	return v
}

// Race compares when each run first reached the race milestones.
func Race(a, b *model.SimulationResult) []RaceRow {
	rows := make([]RaceRow, 0, len(RaceMilestones))
	for _, rm := range RaceMilestones {
		row := RaceRow{Event: rm.Event, Label: rm.Label}
		if m, ok := a.Milestone(rm.Event); ok {
			t := m.Tick
			row.TickA = &t
		}
		if m, ok := b.Milestone(rm.Event); ok {
			t := m.Tick
			row.TickB = &t
		}
		row.Winner = raceWinner(row.TickA, row.TickB)
		rows = append(rows, row)
	}
	return rows
}

// raceWinner treats a nil tick as "never reached". Tick 0 is a real result.
func raceWinner(a, b *int) string {
	switch {
	case a != nil && b != nil:
		if *a < *b {
			return WinnerA
		}
		if *b < *a {
			return WinnerB
		}
		return WinnerTie
	case a != nil:
		return WinnerA
	case b != nil:
		return WinnerB
	}
	return WinnerNone
}

// SnapshotAt returns the last snapshot with tick <= t. It reports false when
// t precedes the first snapshot or r has none.
func SnapshotAt(r *model.SimulationResult, t int) (model.Snapshot, bool) {
	n := sort.Search(len(r.Snapshots), func(i int) bool { return r.Snapshots[i].Tick > t })
	if n == 0 {
		return model.Snapshot{}, false
	}
	return r.Snapshots[n-1], true
}
