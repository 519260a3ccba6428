package harness

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/CargoLoad/internal/model"
	"github.com/piwi3910/CargoLoad/internal/project"
)

func smallProblems(t *testing.T) []model.Problem {
	t.Helper()
	opts := project.DefaultGeneratorOptions()
	opts.Types = 3
	opts.Container = model.Size{Length: 2000, Width: 1000, Height: 1000}
	problems, err := project.GenerateProblemSet(1, 2, opts)
	require.NoError(t, err)
	return problems
}

func quickOptions() Options {
	opts := DefaultOptions()
	opts.Settings.PopulationSize = 10
	opts.Settings.MaxGenerations = 2
	opts.Settings.MaxDuration = 30 * time.Second
	opts.Workers = 4
	return opts
}

func TestTasks(t *testing.T) {
	problems := []model.Problem{{ID: "a"}, {ID: "b"}}
	tasks := Tasks(problems, model.AllGroupImprovements())
	require.Len(t, tasks, 10)
	assert.Equal(t, "a", tasks[0].Problem.ID)
	assert.Equal(t, model.ImprovementNone, tasks[0].Policy)
	assert.Equal(t, "b", tasks[9].Problem.ID)
	assert.Equal(t, model.ImprovementLateBest, tasks[9].Policy)
}

func TestSeedFor(t *testing.T) {
	assert.Equal(t, SeedFor(DefaultSeed, "7"), SeedFor(DefaultSeed, "7"))
	assert.NotEqual(t, SeedFor(DefaultSeed, "7"), SeedFor(DefaultSeed, "8"))
	assert.NotEqual(t, SeedFor(1, "7"), SeedFor(2, "7"))
}

func TestSettingsFor(t *testing.T) {
	opts := quickOptions()
	p := model.Problem{ID: "x", BoxTypes: make([]model.BoxType, 4)}
	s := opts.settingsFor(Task{Problem: p, Policy: model.ImprovementLateSome})
	assert.Equal(t, model.ImprovementLateSome, s.Improvement)
	assert.Equal(t, SeedFor(DefaultSeed, "x"), s.Seed)
	assert.InDelta(t, 0.25, s.GeneMutationRate, 1e-9)
}

func TestRun(t *testing.T) {
	problems := smallProblems(t)
	log := project.NewResultsLog(filepath.Join(t.TempDir(), "results.txt"))

	var calls atomic.Int32
	opts := quickOptions()
	opts.OnResult = func(done, total int, stats model.Stats) {
		calls.Add(1)
		assert.Equal(t, 10, total)
	}

	results, err := Run(context.Background(), problems, log, opts)
	require.NoError(t, err)
	assert.Len(t, results, 10)
	assert.Equal(t, int32(10), calls.Load())

	written, err := project.ReadResults(log.Path())
	require.NoError(t, err)
	assert.Len(t, written, 10)

	perProblem := make(map[string]map[model.GroupImprovement]bool)
	for _, s := range written {
		if perProblem[s.ProblemID] == nil {
			perProblem[s.ProblemID] = make(map[model.GroupImprovement]bool)
		}
		perProblem[s.ProblemID][s.GroupImprovement] = true
		assert.Equal(t, 2, s.Generations)
		assert.Equal(t, 3, s.TypesCount)
	}
	assert.Len(t, perProblem, 2)
	for id, policies := range perProblem {
		assert.Len(t, policies, 5, "problem %s", id)
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := Run(ctx, smallProblems(t), nil, quickOptions())
	assert.Error(t, err)
	assert.Empty(t, results)
}

func TestRun_InvalidSettingsStopsExperiment(t *testing.T) {
	opts := quickOptions()
	opts.Settings.MaxGenerations = 0
	opts.Settings.MaxDuration = 0
	opts.Settings.StopUnimproved = 0

	_, err := Run(context.Background(), smallProblems(t), nil, opts)
	assert.Error(t, err)
}
