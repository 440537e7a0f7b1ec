package model

import "math"

// Optimizer stream event types.
const (
	EventProgress = "progress"
	EventComplete = "complete"
	EventPing     = "ping"
)

// ProgressEvent is emitted once per optimizer generation.
type ProgressEvent struct {
	Generation       int     `json:"generation"`
	TotalGenerations int     `json:"total_generations"`
	BestScore        float64 `json:"best_score"`
	GenBest          float64 `json:"gen_best"`
	MutationRate     float64 `json:"mutation_rate"`
	Stagnation       int     `json:"stagnation"`
}

// Percent returns the rounded completion percentage.
func (p ProgressEvent) Percent() int {
	if p.TotalGenerations <= 0 {
		return 0
	}
	return int(math.Round(float64(p.Generation) / float64(p.TotalGenerations) * 100))
}

// CompleteEvent is the single terminal event of an optimization run.
type CompleteEvent struct {
	BuildOrder BuildOrder       `json:"build_order"`
	Result     SimulationResult `json:"result"`
	History    []float64        `json:"history"`
}
