package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/piwi3910/CargoLoad/internal/model"
	"github.com/piwi3910/CargoLoad/internal/project"
	"github.com/piwi3910/CargoLoad/internal/storage"
)

type boxTypeRequest struct {
	Label    string   `json:"label" validate:"max=128"`
	Size     [3]int   `json:"size" validate:"dive,gt=0"`
	Value    *float64 `json:"value" validate:"omitempty,gte=0"`
	MinCount int      `json:"min_count" validate:"gte=0"`
	MaxCount int      `json:"max_count" validate:"gt=0,gtefield=MinCount"`
}

type problemRequest struct {
	ID        string           `json:"id" validate:"omitempty,max=64,printascii,excludesall=/?#,excludes=.."`
	Container [3]int           `json:"container" validate:"dive,gt=0"`
	BoxTypes  []boxTypeRequest `json:"box_types" validate:"required,min=1,max=500,dive"`
}

// toProblem numbers box types by position. Value defaults to the box volume.
func (req problemRequest) toProblem() (model.Problem, error) {
	boxTypes := make([]model.BoxType, 0, len(req.BoxTypes))
	for i, bt := range req.BoxTypes {
		t := model.NewBoxType(i, bt.Label, bt.Size[0], bt.Size[1], bt.Size[2], bt.MinCount, bt.MaxCount)
		if bt.Value != nil {
			t.Value = *bt.Value
			t.Weight = *bt.Value
		}
		boxTypes = append(boxTypes, t)
	}
	p := model.NewProblem(model.Size{Length: req.Container[0], Width: req.Container[1], Height: req.Container[2]}, boxTypes)
	if req.ID != "" {
		p.ID = req.ID
	}
	if err := p.Validate(); err != nil {
		return model.Problem{}, err
	}
	return p, nil
}

func (h *Handler) CreateProblem(w http.ResponseWriter, r *http.Request) {
	var req problemRequest
	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	p, err := req.toProblem()
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.service.SaveProblem(r.Context(), p); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, http.StatusCreated, "problem created", project.ToProblemFile(p))
}

func (h *Handler) ListProblems(w http.ResponseWriter, r *http.Request) {
	ids, err := h.service.Catalog.ProblemIDs(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	h.successResponse(w, r, http.StatusOK, fmt.Sprintf("%d problems", len(ids)), ids)
}

func (h *Handler) GetProblem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := h.service.LoadProblem(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			h.notFound(w, r, "problem")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, http.StatusOK, "problem found", project.ToProblemFile(p))
}
