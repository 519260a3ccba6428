package model

import (
	"time"

	"github.com/google/uuid"
)

// NewBoxType creates a BoxType with the given dimensions and quantity bounds.
// Value and weight default to the box volume.
func NewBoxType(id int, label string, length, width, height, minCount, maxCount int) BoxType {
	size := Size{Length: length, Width: width, Height: height}
	return BoxType{
		Type:     id,
		Label:    label,
		Size:     size,
		MinCount: minCount,
		MaxCount: maxCount,
		Value:    float64(size.Volume()),
		Weight:   float64(size.Volume()),
	}
}

// NewProblem creates a Problem with a generated short ID.
func NewProblem(container Size, boxTypes []BoxType) Problem {
	return Problem{
		ID:        uuid.New().String()[:8],
		Container: container,
		BoxTypes:  boxTypes,
	}
}

// SolveSettings holds genetic algorithm parameters for a single run.
// Zero stop bounds mean "unbounded"; at least one must be set.
type SolveSettings struct {
	PopulationSize   int              `json:"population_size"`    // Individuals per generation
	TournamentSize   int              `json:"tournament_size"`    // Individuals drawn per tournament
	CrossoverRate    float64          `json:"crossover_rate"`     // Probability a selected pair is crossed
	MutationRate     float64          `json:"mutation_rate"`      // Probability an individual is mutated
	GeneMutationRate float64          `json:"gene_mutation_rate"` // Per-gene probability; 0 means 1/types
	MaxGenerations   int              `json:"max_generations"`
	StopUnimproved   int              `json:"stop_unimproved"` // Consecutive generations without improvement
	MaxDuration      time.Duration    `json:"max_duration"`
	Improvement      GroupImprovement `json:"improvement"`
	Seed             int64            `json:"seed"`
	Workers          int              `json:"workers"` // Parallel evaluations per generation; <= 1 is serial
}

// DefaultSettings returns the parameters used by the experiment harness.
func DefaultSettings() SolveSettings {
	return SolveSettings{
		PopulationSize:   100,
		TournamentSize:   2,
		CrossoverRate:    0.8,
		MutationRate:     0.05,
		GeneMutationRate: 0,
		MaxGenerations:   0,
		StopUnimproved:   0,
		MaxDuration:      300 * time.Second,
		Improvement:      ImprovementNone,
		Seed:             42,
		Workers:          1,
	}
}

// EffectiveGeneMutationRate resolves the per-gene mutation probability for a problem.
func (s SolveSettings) EffectiveGeneMutationRate(types int) float64 {
	if s.GeneMutationRate > 0 {
		return s.GeneMutationRate
	}
	if types <= 0 {
		return 0
	}
	return 1 / float64(types)
}

// HasStopCondition reports whether at least one stop bound is set.
func (s SolveSettings) HasStopCondition() bool {
	return s.MaxGenerations > 0 || s.StopUnimproved > 0 || s.MaxDuration > 0
}
