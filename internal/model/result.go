// Simulation output as returned by the backend
package model

import "sort"

// Snapshot is the sampled economy state at one tick (1 tick = 1 simulated second).
type Snapshot struct {
	Tick              int            `json:"tick"`
	MetalIncome       float64        `json:"metal_income"`
	EnergyIncome      float64        `json:"energy_income"`
	MetalStored       float64        `json:"metal_stored"`
	EnergyStored      float64        `json:"energy_stored"`
	MetalExpenditure  float64        `json:"metal_expenditure"`
	EnergyExpenditure float64        `json:"energy_expenditure"`
	BuildPower        float64        `json:"build_power"`
	ArmyValueMetal    float64        `json:"army_value_metal"`
	StallFactor       float64        `json:"stall_factor"`
	UnitCounts        map[string]int `json:"unit_counts,omitempty"`
}

// Resource kinds reported by stall events.
const (
	ResourceMetal  = "metal"
	ResourceEnergy = "energy"
)

// StallEvent is a closed interval of ticks during which a resource was short.
type StallEvent struct {
	StartTick int     `json:"start_tick"`
	EndTick   int     `json:"end_tick"`
	Resource  string  `json:"resource"`
	Severity  float64 `json:"severity"`
}

// Duration returns the stall length in seconds; both bounds are inclusive.
func (s StallEvent) Duration() int {
	return s.EndTick - s.StartTick + 1
}

// Milestone marks the first occurrence of a notable event.
type Milestone struct {
	Tick         int     `json:"tick"`
	Event        string  `json:"event"`
	Description  string  `json:"description"`
	MetalIncome  float64 `json:"metal_income"`
	EnergyIncome float64 `json:"energy_income"`
}

// CompletionEntry records a finished unit in the construction log.
type CompletionEntry struct {
	Tick      int    `json:"tick"`
	UnitKey   string `json:"unit_key"`
	BuilderID string `json:"builder_id"`
}

// SimulationResult is the full output of one simulated build order.
type SimulationResult struct {
	BuildOrderName          string            `json:"build_order_name"`
	TotalTicks              int               `json:"total_ticks"`
	Snapshots               []Snapshot        `json:"snapshots"`
	StallEvents             []StallEvent      `json:"stall_events"`
	Milestones              []Milestone       `json:"milestones"`
	CompletionLog           []CompletionEntry `json:"completion_log"`
	TimeToFirstFactory      *int              `json:"time_to_first_factory"`
	TimeToFirstConstructor  *int              `json:"time_to_first_constructor"`
	TimeToFirstNano         *int              `json:"time_to_first_nano"`
	TimeToT2Lab             *int              `json:"time_to_t2_lab"`
	PeakMetalIncome         float64           `json:"peak_metal_income"`
	PeakEnergyIncome        float64           `json:"peak_energy_income"`
	TotalMetalStallSeconds  int               `json:"total_metal_stall_seconds"`
	TotalEnergyStallSeconds int               `json:"total_energy_stall_seconds"`
	TotalArmyMetalValue     float64           `json:"total_army_metal_value"`
}

// SortedMilestones returns the milestones ordered by tick. Equal ticks keep
// their received order. The result's own slice is left untouched.
func (r *SimulationResult) SortedMilestones() []Milestone {
	out := make([]Milestone, len(r.Milestones))
	copy(out, r.Milestones)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Tick < out[j].Tick })
	return out
}

// Milestone returns the first milestone with the given event name.
func (r *SimulationResult) Milestone(event string) (Milestone, bool) {
	for _, m := range r.Milestones {
		if m.Event == event {
			return m, true
		}
	}
	return Milestone{}, false
}

// Ticks returns the tick of every snapshot in order.
func (r *SimulationResult) Ticks() []int {
	out := make([]int, len(r.Snapshots))
	for i, s := range r.Snapshots {
		out[i] = s.Tick
	}
	return out
}

// Series extracts one numeric field from every snapshot.
func (r *SimulationResult) Series(field func(Snapshot) float64) []float64 {
	out := make([]float64, len(r.Snapshots))
	for i, s := range r.Snapshots {
		out[i] = field(s)
	}
	return out
}

// Snapshot field selectors used by charts and comparisons.
func MetalIncome(s Snapshot) float64    { return s.MetalIncome }
func EnergyIncome(s Snapshot) float64   { return s.EnergyIncome }
func MetalStored(s Snapshot) float64    { return s.MetalStored }
func EnergyStored(s Snapshot) float64   { return s.EnergyStored }
func BuildPower(s Snapshot) float64     { return s.BuildPower }
func ArmyValueMetal(s Snapshot) float64 { return s.ArmyValueMetal }
func StallFactor(s Snapshot) float64    { return s.StallFactor }
