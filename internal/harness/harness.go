package harness

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"log/slog"
	"runtime"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/piwi3910/CargoLoad/internal/engine"
	"github.com/piwi3910/CargoLoad/internal/metrics"
	"github.com/piwi3910/CargoLoad/internal/model"
	"github.com/piwi3910/CargoLoad/internal/project"
)

// DefaultSeed matches the seed every experiment run starts from.
const DefaultSeed = 100

// Options configures an experiment.
type Options struct {
	// Settings is the base for every run. Improvement and Seed are set per task.
	Settings model.SolveSettings
	Policies []model.GroupImprovement
	// Workers is the number of concurrent runs. Zero uses one less than the CPU count.
	Workers int
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// OnResult is called after each run is written, from the worker goroutine.
	OnResult func(done, total int, stats model.Stats)
}

// DefaultOptions runs every policy for five minutes per run.
func DefaultOptions() Options {
	s := model.DefaultSettings()
	s.Seed = DefaultSeed
	return Options{
		Settings: s,
		Policies: model.AllGroupImprovements(),
	}
}

// Task is one (problem, policy) run.
type Task struct {
	Problem model.Problem
	Policy  model.GroupImprovement
}

// Tasks expands problems × policies in problem order.
func Tasks(problems []model.Problem, policies []model.GroupImprovement) []Task {
	tasks := make([]Task, 0, len(problems)*len(policies))
	for _, p := range problems {
		for _, policy := range policies {
			tasks = append(tasks, Task{Problem: p, Policy: policy})
		}
	}
	return tasks
}

// SeedFor derives the seed of a problem. Every policy on the same problem
// shares it, so they all start from the same initial population.
func SeedFor(base int64, problemID string) int64 {
	h := fnv.New64a()
	h.Write([]byte(problemID))
	return base ^ int64(h.Sum64()>>1)
}

// settingsFor returns the run settings of a task.
func (o Options) settingsFor(t Task) model.SolveSettings {
	s := o.Settings
	s.Improvement = t.Policy
	s.Seed = SeedFor(o.Settings.Seed, t.Problem.ID)
	s.GeneMutationRate = s.EffectiveGeneMutationRate(len(t.Problem.BoxTypes))
	return s
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return max(1, runtime.NumCPU()-1)
}

// Run solves every task and appends each result to log as soon as it finishes.
// The first failing run cancels the rest. Results come back in completion order.
func Run(ctx context.Context, problems []model.Problem, log *project.ResultsLog, opts Options) ([]model.Stats, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if len(opts.Policies) == 0 {
		opts.Policies = model.AllGroupImprovements()
	}

	tasks := Tasks(problems, opts.Policies)
	total := len(tasks)
	logger.Info("experiment started", "problems", len(problems), "policies", len(opts.Policies), "runs", total, "workers", opts.workers())

	var (
		mu      sync.Mutex
		results = make([]model.Stats, 0, total)
	)

	p := pool.New().WithMaxGoroutines(opts.workers()).WithContext(ctx).WithCancelOnError()
	for _, task := range tasks {
		task := task
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			problem := task.Problem
			stats, err := engine.Solve(ctx, &problem, opts.settingsFor(task), logger)
			if err != nil {
				if opts.Metrics != nil {
					opts.Metrics.ObserveFailure(task.Policy)
				}
				return fmt.Errorf("failed to solve problem %s with %s: %w", problem.ID, task.Policy, err)
			}
			if opts.Metrics != nil {
				opts.Metrics.ObserveRun(stats)
			}
			if log != nil {
				if err := log.Append(stats); err != nil {
					return err
				}
			}

			mu.Lock()
			results = append(results, stats)
			done := len(results)
			mu.Unlock()

			logger.Info("run finished",
				"problem", problem.ID,
				"policy", task.Policy.String(),
				"best_value", stats.BestValue.Value,
				"done", done,
				"total", total)
			if opts.OnResult != nil {
				opts.OnResult(done, total, stats)
			}
			return nil
		})
	}

	err := p.Wait()
	return results, err
}
