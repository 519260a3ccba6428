package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/piwi3910/CargoLoad/internal/model"
	"github.com/piwi3910/CargoLoad/internal/repository"
	"github.com/piwi3910/CargoLoad/internal/storage"
)

const (
	defaultRunLimit = 50
	maxRunLimit     = 500
)

func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxRunLimit {
			h.errorResponse(w, r, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	runs, err := h.service.Runs.ListRuns(r.Context(), r.URL.Query().Get("problem_id"), limit)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	h.successResponse(w, r, http.StatusOK, "runs listed", runs)
}

type runResponse struct {
	Run   *model.Run   `json:"run"`
	Stats *model.Stats `json:"stats,omitempty"`
}

func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := h.service.Runs.GetRun(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRunNotFound):
			h.notFound(w, r, "run")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	resp := runResponse{Run: run}
	if run.Status == model.RunCompleted {
		stats, err := h.service.Catalog.LoadRun(r.Context(), id)
		switch {
		case err == nil:
			resp.Stats = &stats
		case errors.Is(err, storage.ErrNotFound):
		default:
			h.internalServerError(w, r, err)
			return
		}
	}
	h.successResponse(w, r, http.StatusOK, "run found", resp)
}
