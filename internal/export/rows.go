// Package export writes simulation snapshots to files, STDOUT or GreptimeDB
// and records optimizer streams for later replay.
package export

import (
	"time"

	"github.com/google/uuid"

	"bodash/internal/model"
)

// SnapshotRow is one snapshot tagged with the run it belongs to.
type SnapshotRow struct {
	RunID          string    `json:"run_id"`      // TAG
	BuildOrder     string    `json:"build_order"` // TAG
	Source         string    `json:"source"`      // TAG
	Tick           int       `json:"tick"`
	MetalIncome    float64   `json:"metal_income"`
	EnergyIncome   float64   `json:"energy_income"`
	MetalStored    float64   `json:"metal_stored"`
	EnergyStored   float64   `json:"energy_stored"`
	BuildPower     float64   `json:"build_power"`
	ArmyValueMetal float64   `json:"army_value_metal"`
	StallFactor    float64   `json:"stall_factor"`
	Timestamp      time.Time `json:"ts"` // TIME INDEX
}

// StallRow is one stall interval tagged with its run.
type StallRow struct {
	RunID      string    `json:"run_id"`
	BuildOrder string    `json:"build_order"`
	Resource   string    `json:"resource"`
	StartTick  int       `json:"start_tick"`
	EndTick    int       `json:"end_tick"`
	Severity   float64   `json:"severity"`
	Timestamp  time.Time `json:"ts"`
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// SnapshotRows converts r into rows. Row timestamps are start plus the tick in
// seconds so a run lines up on a time axis.
func SnapshotRows(runID, source string, start time.Time, r *model.SimulationResult) []SnapshotRow {
	rows := make([]SnapshotRow, 0, len(r.Snapshots))
	for _, s := range r.Snapshots {
		rows = append(rows, SnapshotRow{
			RunID:          runID,
			BuildOrder:     r.BuildOrderName,
			Source:         source,
			Tick:           s.Tick,
			MetalIncome:    s.MetalIncome,
			EnergyIncome:   s.EnergyIncome,
			MetalStored:    s.MetalStored,
			EnergyStored:   s.EnergyStored,
			BuildPower:     s.BuildPower,
			ArmyValueMetal: s.ArmyValueMetal,
			StallFactor:    s.StallFactor,
			Timestamp:      start.Add(time.Duration(s.Tick) * time.Second),
		})
	}
	return rows
}

// StallRows converts the stall events of r into rows.
func StallRows(runID string, start time.Time, r *model.SimulationResult) []StallRow {
	rows := make([]StallRow, 0, len(r.StallEvents))
	for _, s := range r.StallEvents {
		rows = append(rows, StallRow{
			RunID:      runID,
			BuildOrder: r.BuildOrderName,
			Resource:   s.Resource,
			StartTick:  s.StartTick,
			EndTick:    s.EndTick,
			Severity:   s.Severity,
			Timestamp:  start.Add(time.Duration(s.StartTick) * time.Second),
		})
	}
	return rows
}
