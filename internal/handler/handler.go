package handler

import (
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/piwi3910/CargoLoad/internal/config"
	"github.com/piwi3910/CargoLoad/internal/metrics"
	"github.com/piwi3910/CargoLoad/internal/service"
)

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	service    *service.Service
	metrics    *metrics.Metrics
	translator ut.Translator
	log        *slog.Logger

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, svc *service.Service, m *metrics.Metrics, logger *slog.Logger) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if m == nil {
		m = metrics.New()
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		service:    svc,
		metrics:    m,
		translator: trans,
		log:        logger,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Get("/healthz", h.Healthz)
	h.Mux.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	h.Mux.Group(func(r chi.Router) {
		if h.config.Auth.Secret != "" {
			r.Use(h.auth)
		}

		r.Route("/problems", func(r chi.Router) {
			r.Post("/", h.CreateProblem)
			r.Get("/", h.ListProblems)
			r.Get("/{id}", h.GetProblem)
		})
		r.Post("/solve", h.Solve)
		r.Post("/jobs", h.CreateJob)
		r.Route("/runs", func(r chi.Router) {
			r.Get("/", h.ListRuns)
			r.Get("/{id}", h.GetRun)
		})
	})
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, http.StatusOK, "ok", nil)
}
