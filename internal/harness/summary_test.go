package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/CargoLoad/internal/model"
)

func stat(problem string, types int, policy model.GroupImprovement, value, initial float64) model.Stats {
	return model.Stats{
		ProblemID:        problem,
		TypesCount:       types,
		GroupImprovement: policy,
		BestValue:        model.Fitness{Value: value, Occupancy: value / 100},
		InitialBest:      model.Fitness{Value: initial},
		Generations:      10,
		Timings:          model.Timings{Duration: 2},
	}
}

func TestSummarize(t *testing.T) {
	results := []model.Stats{
		stat("1", 5, model.ImprovementNone, 40, 30),
		stat("1", 5, model.ImprovementLateBest, 60, 30),
		stat("2", 5, model.ImprovementNone, 50, 50),
		stat("2", 5, model.ImprovementLateBest, 50, 40),
		stat("3", 10, model.ImprovementDuring, 80, 70),
	}
	results[4].Interrupted = true

	summaries := Summarize(results)
	require.Len(t, summaries, 3)

	none := summaries[0]
	assert.Equal(t, 5, none.TypesCount)
	assert.Equal(t, model.ImprovementNone, none.Improvement)
	assert.Equal(t, 2, none.Runs)
	assert.InDelta(t, 45, none.MeanValue, 1e-9)
	assert.InDelta(t, 5, none.MeanGain, 1e-9)
	assert.Equal(t, 1, none.Wins, "ties count as wins")

	lateBest := summaries[1]
	assert.Equal(t, model.ImprovementLateBest, lateBest.Improvement)
	assert.InDelta(t, 55, lateBest.MeanValue, 1e-9)
	assert.Equal(t, 2, lateBest.Wins)

	during := summaries[2]
	assert.Equal(t, 10, during.TypesCount)
	assert.Equal(t, 1, during.Interrupted)
	assert.InDelta(t, 2, during.MeanDuration, 1e-9)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Empty(t, Summarize(nil))
}
