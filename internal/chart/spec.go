package chart

import (
	"strconv"

	"bodash/internal/model"
)

// Chart ids used by the dashboard views.
const (
	IDEconomy   = "economy"
	IDStored    = "stored"
	IDBPArmy    = "bp-army"
	IDStall     = "stall"
	IDCmpMetal  = "chart-cmp-metal"
	IDCmpEnergy = "chart-cmp-energy"
	IDCmpArmy   = "chart-cmp-army"
	IDCmpBP     = "chart-cmp-bp"
	IDFitness   = "opt-fitness"
	IDOptEco    = "opt-economy"
	IDOptStored = "opt-stored"
)

// Series colors.
const (
	ColorMetal      = "#00e5ff"
	ColorEnergy     = "#ffd740"
	ColorBuildPower = "#ea80fc"
	ColorArmy       = "#69f0ae"
	ColorStall      = "#f85149"
	ColorFitness    = "#69f0ae"
	ColorRunA       = "#00e5ff"
	ColorRunB       = "#ff9800"
)

// Series is one plotted line.
type Series struct {
	Label  string
	Values []float64
	Color  string
	// Fill is the area color under the line; empty means no fill.
	Fill string
	// Axis is AxisY or AxisY1; empty means AxisY.
	Axis string
}

// Spec fully describes a chart to be materialized.
type Spec struct {
	Title  string
	Labels []string
	// Ticks, when it matches Labels in length, holds the ascending tick of
	// each label and is used to position tick-spanned annotations.
	Ticks   []int
	Series  []Series
	Options Options
}

// Clone returns a deep copy of s.
func (s Spec) Clone() Spec {
	out := s
	out.Labels = append([]string(nil), s.Labels...)
	if s.Ticks != nil {
		out.Ticks = append([]int(nil), s.Ticks...)
	}
	out.Series = make([]Series, len(s.Series))
	for i, sr := range s.Series {
		sr.Values = append([]float64(nil), sr.Values...)
		out.Series[i] = sr
	}
	out.Options = s.Options.Clone()
	return out
}

func labels(r *model.SimulationResult) []string {
	return model.FormatTicks(r.Ticks())
}

// ResultAnnotations merges the stall and milestone overlays of r.
func ResultAnnotations(r *model.SimulationResult) Options {
	return DefaultOptions().WithAnnotations(StallAnnotations(r.StallEvents), MilestoneAnnotations(r.Milestones))
}

// Economy plots metal and energy income with stall and milestone overlays.
func Economy(r *model.SimulationResult) Spec {
	return Spec{
		Title:  "Income",
		Labels: labels(r),
		Ticks:  r.Ticks(),
		Series: []Series{
			{Label: "Metal /s", Values: r.Series(model.MetalIncome), Color: ColorMetal, Fill: "rgba(0,229,255,0.1)"},
			{Label: "Energy /s", Values: r.Series(model.EnergyIncome), Color: ColorEnergy, Fill: "rgba(255,215,64,0.1)"},
		},
		Options: ResultAnnotations(r),
	}
}

// Stored plots stored metal and energy.
func Stored(r *model.SimulationResult) Spec {
	return Spec{
		Title:  "Stored",
		Labels: labels(r),
		Ticks:  r.Ticks(),
		Series: []Series{
			{Label: "Metal Stored", Values: r.Series(model.MetalStored), Color: ColorMetal, Fill: "rgba(0,229,255,0.05)"},
			{Label: "Energy Stored", Values: r.Series(model.EnergyStored), Color: ColorEnergy, Fill: "rgba(255,215,64,0.05)"},
		},
		Options: DefaultOptions(),
	}
}

// BuildPowerArmy plots build power on the left axis and army value on a
// right axis whose grid is suppressed.
func BuildPowerArmy(r *model.SimulationResult) Spec {
	opts := DefaultOptions().WithScale(AxisY1, AxisOptions{
		Position:    "right",
		Grid:        GridOptions{Hidden: true},
		Ticks:       TickOptions{Color: ColorArmy, FontSize: 10},
		BeginAtZero: true,
	})
	return Spec{
		Title:  "Build Power / Army",
		Labels: labels(r),
		Ticks:  r.Ticks(),
		Series: []Series{
			{Label: "Build Power", Values: r.Series(model.BuildPower), Color: ColorBuildPower, Axis: AxisY},
			{Label: "Army Value (M)", Values: r.Series(model.ArmyValueMetal), Color: ColorArmy, Axis: AxisY1},
		},
		Options: opts,
	}
}

// StallFactor plots the stall factor with the y axis clamped to [0, 1.1].
func StallFactor(r *model.SimulationResult) Spec {
	opts := DefaultOptions()
	y, _ := opts.Scale(AxisY)
	lo, hi := 0.0, 1.1
	y.Min, y.Max = &lo, &hi
	return Spec{
		Title:  "Stall Factor",
		Labels: labels(r),
		Ticks:  r.Ticks(),
		Series: []Series{
			{Label: "Stall Factor", Values: r.Series(model.StallFactor), Color: ColorStall, Fill: "rgba(248,81,73,0.1)"},
		},
		Options: opts.WithScale(AxisY, y),
	}
}

// Overlay plots two runs against shared labels. Values are not resampled:
// each series keeps its own length.
func Overlay(title string, labels []string, nameA string, a []float64, nameB string, b []float64) Spec {
	return Spec{
		Title:  title,
		Labels: append([]string(nil), labels...),
		Series: []Series{
			{Label: nameA, Values: append([]float64(nil), a...), Color: ColorRunA},
			{Label: nameB, Values: append([]float64(nil), b...), Color: ColorRunB},
		},
		Options: DefaultOptions(),
	}
}

// Fitness plots best fitness per generation.
func Fitness(history []float64) Spec {
	l := make([]string, len(history))
	for i := range history {
		l[i] = strconv.Itoa(i)
	}
	return Spec{
		Title:   "Best Fitness",
		Labels:  l,
		Series:  []Series{{Label: "Best Fitness", Values: append([]float64(nil), history...), Color: ColorFitness}},
		Options: DefaultOptions(),
	}
}

// ResultSet returns the four per-result charts keyed by id with prefix applied.
func ResultSet(prefix string, r *model.SimulationResult) map[string]Spec {
	return map[string]Spec{
		prefix + IDEconomy: Economy(r),
		prefix + IDStored:  Stored(r),
		prefix + IDBPArmy:  BuildPowerArmy(r),
		prefix + IDStall:   StallFactor(r),
	}
}
