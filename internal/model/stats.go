package model

import (
	"encoding/json"
	"fmt"
)

// Fitness summarizes an evaluated placement plan.
// It serializes as the tuple [occupancy, boxes, value].
type Fitness struct {
	Occupancy float64 // occupied volume / container volume, rounded to 2 decimals
	Boxes     int
	Value     float64
}

func (f Fitness) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{f.Occupancy, f.Boxes, f.Value})
}

func (f *Fitness) UnmarshalJSON(data []byte) error {
	var raw []float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse fitness tuple: %w", err)
	}
	if len(raw) != 3 {
		return fmt.Errorf("fitness tuple must have 3 elements, got %d", len(raw))
	}
	f.Occupancy = raw[0]
	f.Boxes = int(raw[1])
	f.Value = raw[2]
	return nil
}

func (f Fitness) String() string {
	return fmt.Sprintf("(%.2f, %d, %.2f)", f.Occupancy, f.Boxes, f.Value)
}

// GeneAssignment is one (type, count, rotation) entry of a solution.
// It serializes as a 3-element array.
type GeneAssignment struct {
	Type     int
	Count    int
	Rotation int
}

func (g GeneAssignment) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]int{g.Type, g.Count, g.Rotation})
}

func (g *GeneAssignment) UnmarshalJSON(data []byte) error {
	var raw [3]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse gene assignment: %w", err)
	}
	g.Type, g.Count, g.Rotation = raw[0], raw[1], raw[2]
	return nil
}

// Timings records wall-clock information about a run.
type Timings struct {
	Start           int64     `json:"start_time"` // unix seconds
	End             int64     `json:"end_time"`   // unix seconds
	Duration        float64   `json:"duration"`   // seconds
	GenerationsTime []float64 `json:"generations_time"`
}

// Stats is the outcome of a genetic algorithm run and the contract consumed
// by persistence, reporting and export.
type Stats struct {
	BestValue         Fitness          `json:"best_value"`
	ProblemID         string           `json:"problem_id"`
	TypesCount        int              `json:"types_count"`
	GroupImprovement  GroupImprovement `json:"group_improvement"`
	Generations       int              `json:"generations"`
	BestValues        []float64        `json:"best_values"`
	BestBoxes         []int            `json:"best_boxes"`
	Timings           Timings          `json:"timings"`
	DefaultMaxFitness *Fitness         `json:"default_max_fitness"`
	InitialBest       Fitness          `json:"initial_best"`
	BestSolution      []GeneAssignment `json:"best_solution"`
	Placements        []Box            `json:"placements,omitempty"`
	Interrupted       bool             `json:"interrupted,omitempty"`
}

// Improvement returns how much the run improved over the initial population's best value.
func (s Stats) Improvement() float64 {
	return s.BestValue.Value - s.InitialBest.Value
}
