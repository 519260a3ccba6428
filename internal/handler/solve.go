package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/piwi3910/CargoLoad/internal/model"
	"github.com/piwi3910/CargoLoad/internal/service"
	"github.com/piwi3910/CargoLoad/internal/storage"
)

// settingsRequest overrides the server's default solve settings. Omitted fields keep the default.
type settingsRequest struct {
	PopulationSize *int     `json:"population_size" validate:"omitempty,gte=2,lte=5000"`
	TournamentSize *int     `json:"tournament_size" validate:"omitempty,gte=1"`
	CrossoverRate  *float64 `json:"crossover_rate" validate:"omitempty,gte=0,lte=1"`
	MutationRate   *float64 `json:"mutation_rate" validate:"omitempty,gte=0,lte=1"`
	MaxGenerations *int     `json:"max_generations" validate:"omitempty,gte=0"`
	StopUnimproved *int     `json:"stop_unimproved" validate:"omitempty,gte=0"`
	MaxDuration    *float64 `json:"max_duration" validate:"omitempty,gte=0,lte=3600"` // seconds
	Improvement    string   `json:"group_improvement" validate:"omitempty,oneof=none during late_all late_some late_best"`
	Seed           *int64   `json:"seed"`
}

func (s settingsRequest) apply(base model.SolveSettings) model.SolveSettings {
	if s.PopulationSize != nil {
		base.PopulationSize = *s.PopulationSize
	}
	if s.TournamentSize != nil {
		base.TournamentSize = *s.TournamentSize
	}
	if s.CrossoverRate != nil {
		base.CrossoverRate = *s.CrossoverRate
	}
	if s.MutationRate != nil {
		base.MutationRate = *s.MutationRate
	}
	if s.MaxGenerations != nil {
		base.MaxGenerations = *s.MaxGenerations
	}
	if s.StopUnimproved != nil {
		base.StopUnimproved = *s.StopUnimproved
	}
	if s.MaxDuration != nil {
		base.MaxDuration = time.Duration(*s.MaxDuration * float64(time.Second))
	}
	if s.Improvement != "" {
		// oneof already restricted the name
		base.Improvement, _ = model.ParseGroupImprovement(s.Improvement)
	}
	if s.Seed != nil {
		base.Seed = *s.Seed
	}
	return base
}

// checkSettings rejects merged settings the solver would refuse to run.
func checkSettings(s model.SolveSettings) error {
	if !s.HasStopCondition() {
		return errors.New("at least one of max_generations, stop_unimproved or max_duration must be set")
	}
	if s.TournamentSize >= s.PopulationSize {
		return errors.New("tournament_size must be smaller than population_size")
	}
	return nil
}

type solveRequest struct {
	ProblemID string          `json:"problem_id" validate:"required_without=Problem"`
	Problem   *problemRequest `json:"problem"`
	Settings  settingsRequest `json:"settings"`
}

type solveResponse struct {
	Run   model.Run   `json:"run"`
	Stats model.Stats `json:"stats"`
}

// Solve runs the genetic algorithm inside the request. A client disconnect
// interrupts the run and the partial result is still recorded.
func (h *Handler) Solve(w http.ResponseWriter, r *http.Request) {
	var req solveRequest
	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	var problem model.Problem
	if req.Problem != nil {
		p, err := req.Problem.toProblem()
		if err != nil {
			h.badRequest(w, r, err)
			return
		}
		problem = p
	} else {
		p, err := h.service.LoadProblem(r.Context(), req.ProblemID)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrNotFound):
				h.notFound(w, r, "problem")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}
		problem = p
	}

	settings := req.Settings.apply(h.config.SolveSettings())
	if err := checkSettings(settings); err != nil {
		h.errorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	run, stats, err := h.service.SolveNow(r.Context(), problem, settings)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, http.StatusOK, "problem solved", solveResponse{Run: run, Stats: stats})
}

type jobRequest struct {
	ProblemID   string          `json:"problem_id" validate:"required"`
	Settings    settingsRequest `json:"settings"`
	NotifyEmail string          `json:"notify_email" validate:"omitempty,email"`
}

func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req jobRequest
	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	settings := req.Settings.apply(h.config.SolveSettings())
	if err := checkSettings(settings); err != nil {
		h.errorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	run, err := h.service.Enqueue(r.Context(), req.ProblemID, settings, req.NotifyEmail)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			h.notFound(w, r, "problem")
		case errors.Is(err, service.ErrQueueDisabled):
			h.errorResponse(w, r, http.StatusServiceUnavailable, err.Error())
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, http.StatusAccepted, "job queued", run)
}
