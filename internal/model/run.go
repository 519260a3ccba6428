package model

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of a solve run submitted through the API or queue.
type RunStatus string

const (
	RunQueued    RunStatus = "queued"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Run is the summary row kept for every solve request.
type Run struct {
	ID          string           `json:"id"`
	ProblemID   string           `json:"problem_id"`
	Improvement GroupImprovement `json:"group_improvement"`
	Status      RunStatus        `json:"status"`
	BestValue   float64          `json:"best_value"`
	Occupancy   float64          `json:"occupancy"`
	Boxes       int              `json:"boxes"`
	Generations int              `json:"generations"`
	Duration    float64          `json:"duration"` // seconds
	Interrupted bool             `json:"interrupted"`
	Error       string           `json:"error,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// NewRun creates a queued run with a generated ID.
func NewRun(problemID string, improvement GroupImprovement) Run {
	now := time.Now().UTC()
	return Run{
		ID:          uuid.New().String(),
		ProblemID:   problemID,
		Improvement: improvement,
		Status:      RunQueued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Complete copies the headline numbers of a finished run.
func (r *Run) Complete(stats Stats) {
	r.Status = RunCompleted
	r.BestValue = stats.BestValue.Value
	r.Occupancy = stats.BestValue.Occupancy
	r.Boxes = stats.BestValue.Boxes
	r.Generations = stats.Generations
	r.Duration = stats.Timings.Duration
	r.Interrupted = stats.Interrupted
	r.Error = ""
	r.UpdatedAt = time.Now().UTC()
}

// Fail marks the run as failed with the error text.
func (r *Run) Fail(err error) {
	r.Status = RunFailed
	if err != nil {
		r.Error = err.Error()
	}
	r.UpdatedAt = time.Now().UTC()
}
