package compare

import "bodash/internal/model"

const categoryTick = 300

type metric struct {
	label         string
	value         func(*model.SimulationResult) (float64, bool)
	lowerIsBetter bool
}

var categoryMetrics = []metric{
	{
		label: "Fastest Factory",
		value: func(r *model.SimulationResult) (float64, bool) {
			if r.TimeToFirstFactory == nil {
				return 0, false
			}
			return float64(*r.TimeToFirstFactory), true
		},
		lowerIsBetter: true,
	},
	{
		label: "Best 5:00 eco",
		value: func(r *model.SimulationResult) (float64, bool) {
			s, ok := SnapshotAt(r, categoryTick)
			return s.MetalIncome, ok
		},
	},
	{
		label: "Best 5:00 army",
		value: func(r *model.SimulationResult) (float64, bool) {
			s, ok := SnapshotAt(r, categoryTick)
			return s.ArmyValueMetal, ok
		},
	},
	{
		label: "Least stalling",
		value: func(r *model.SimulationResult) (float64, bool) {
			return float64(r.TotalMetalStallSeconds + r.TotalEnergyStallSeconds), true
		},
		lowerIsBetter: true,
	},
}

// Categories picks a winner per category. Ties go to A. A run without a
// value for a metric cannot win it; when neither has one the category is
// marked invalid.
func Categories(a, b *model.SimulationResult) []Category {
	out := make([]Category, 0, len(categoryMetrics))
	for _, m := range categoryMetrics {
		va, okA := m.value(a)
		vb, okB := m.value(b)
		c := Category{Label: m.label, Winner: WinnerNone}
		switch {
		case okA && okB:
			better := vb > va
			if m.lowerIsBetter {
				better = vb < va
			}
			if better {
				c.Winner, c.Name, c.Value = WinnerB, b.BuildOrderName, vb
			} else {
				c.Winner, c.Name, c.Value = WinnerA, a.BuildOrderName, va
			}
			c.Valid = true
		case okA:
			c.Winner, c.Name, c.Value, c.Valid = WinnerA, a.BuildOrderName, va, true
		case okB:
			c.Winner, c.Name, c.Value, c.Valid = WinnerB, b.BuildOrderName, vb, true
		}
		out = append(out, c)
	}
	return out
}
