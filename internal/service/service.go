package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/piwi3910/CargoLoad/internal/engine"
	"github.com/piwi3910/CargoLoad/internal/metrics"
	"github.com/piwi3910/CargoLoad/internal/model"
	"github.com/piwi3910/CargoLoad/internal/notify"
	"github.com/piwi3910/CargoLoad/internal/queue"
	"github.com/piwi3910/CargoLoad/internal/repository"
	"github.com/piwi3910/CargoLoad/internal/storage"
)

// SolveFunc runs the genetic algorithm. It is engine.Solve outside of tests.
type SolveFunc func(ctx context.Context, problem *model.Problem, settings model.SolveSettings, logger *slog.Logger) (model.Stats, error)

// Service ties problem storage, the run store and the solver together.
// The API server and the queue worker share one instance.
type Service struct {
	Catalog  *storage.Catalog
	Runs     repository.RunStore
	Jobs     queue.Publisher
	Notifier notify.Notifier
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
	Solve    SolveFunc
}

// ErrQueueDisabled is returned by Enqueue when no broker is configured.
var ErrQueueDisabled = errors.New("job queue is not configured")

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s.Logger
}

func (s *Service) solve() SolveFunc {
	if s.Solve == nil {
		return engine.Solve
	}
	return s.Solve
}

// SaveProblem stores a validated problem under its id.
func (s *Service) SaveProblem(ctx context.Context, p model.Problem) error {
	return s.Catalog.SaveProblem(ctx, p)
}

// LoadProblem returns a stored problem.
func (s *Service) LoadProblem(ctx context.Context, id string) (model.Problem, error) {
	return s.Catalog.LoadProblem(ctx, id)
}

// SolveNow records a run, solves the problem in the caller's goroutine and
// stores the resulting statistics under the run id.
func (s *Service) SolveNow(ctx context.Context, problem model.Problem, settings model.SolveSettings) (model.Run, model.Stats, error) {
	run := model.NewRun(problem.ID, settings.Improvement)
	if err := s.Runs.InsertRun(ctx, &run); err != nil {
		return run, model.Stats{}, fmt.Errorf("failed to record run: %w", err)
	}
	stats, err := s.execute(ctx, &run, &problem, settings)
	return run, stats, err
}

// Enqueue records a queued run and publishes a job for it.
func (s *Service) Enqueue(ctx context.Context, problemID string, settings model.SolveSettings, notifyEmail string) (model.Run, error) {
	if s.Jobs == nil {
		return model.Run{}, ErrQueueDisabled
	}
	if _, err := s.Catalog.LoadProblem(ctx, problemID); err != nil {
		return model.Run{}, err
	}

	run := model.NewRun(problemID, settings.Improvement)
	if err := s.Runs.InsertRun(ctx, &run); err != nil {
		return run, fmt.Errorf("failed to record run: %w", err)
	}

	job := queue.Job{RunID: run.ID, ProblemID: problemID, Settings: settings, NotifyEmail: notifyEmail}
	if err := s.Jobs.Publish(ctx, job); err != nil {
		run.Fail(err)
		if uerr := s.Runs.UpdateRun(ctx, &run); uerr != nil {
			s.logger().Error("failed to mark run failed", "run", run.ID, "error", uerr)
		}
		return run, err
	}
	s.observeJob("queued")
	return run, nil
}

// HandleJob is the queue.HandlerFunc of the worker.
func (s *Service) HandleJob(ctx context.Context, job queue.Job) error {
	run, err := s.Runs.GetRun(ctx, job.RunID)
	if errors.Is(err, repository.ErrRunNotFound) {
		return queue.Permanent(err)
	}
	if err != nil {
		return err
	}
	if run.Status == model.RunCompleted {
		// redelivered after the ack was lost
		return nil
	}

	problem, err := s.Catalog.LoadProblem(ctx, job.ProblemID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.finish(ctx, run, model.Stats{}, err, job.NotifyEmail)
			return queue.Permanent(err)
		}
		return err
	}

	_, err = s.execute(ctx, run, &problem, job.Settings)
	if err != nil && ctx.Err() == nil {
		err = queue.Permanent(err)
	}
	if job.NotifyEmail != "" && s.Notifier != nil && run.Status != model.RunRunning {
		if nerr := s.Notifier.NotifyRun(ctx, job.NotifyEmail, *run); nerr != nil {
			s.logger().Warn("failed to send notification", "run", run.ID, "error", nerr)
		}
	}
	if err == nil {
		s.observeJob("completed")
	} else {
		s.observeJob("failed")
	}
	return err
}

// execute runs the solver for an already recorded run and stores the outcome.
func (s *Service) execute(ctx context.Context, run *model.Run, problem *model.Problem, settings model.SolveSettings) (model.Stats, error) {
	run.Status = model.RunRunning
	if err := s.Runs.UpdateRun(ctx, run); err != nil {
		return model.Stats{}, fmt.Errorf("failed to update run: %w", err)
	}

	stats, err := s.solve()(ctx, problem, settings, s.logger())
	if err != nil {
		if s.Metrics != nil {
			s.Metrics.ObserveFailure(settings.Improvement)
		}
		if ctx.Err() != nil {
			// leave the run for redelivery
			return stats, err
		}
		s.finish(ctx, run, stats, err, "")
		return stats, err
	}

	if err := s.Catalog.SaveRun(ctx, run.ID, stats); err != nil {
		return stats, fmt.Errorf("failed to store run statistics: %w", err)
	}
	if s.Metrics != nil {
		s.Metrics.ObserveRun(stats)
	}
	s.finish(ctx, run, stats, nil, "")
	return stats, nil
}

func (s *Service) finish(ctx context.Context, run *model.Run, stats model.Stats, runErr error, notifyEmail string) {
	if runErr != nil {
		run.Fail(runErr)
	} else {
		run.Complete(stats)
	}
	if err := s.Runs.UpdateRun(ctx, run); err != nil {
		s.logger().Error("failed to update run", "run", run.ID, "error", err)
	}
	if notifyEmail != "" && s.Notifier != nil {
		if err := s.Notifier.NotifyRun(ctx, notifyEmail, *run); err != nil {
			s.logger().Warn("failed to send notification", "run", run.ID, "error", err)
		}
	}
}

func (s *Service) observeJob(status string) {
	if s.Metrics != nil {
		s.Metrics.Jobs.WithLabelValues(status).Inc()
	}
}
