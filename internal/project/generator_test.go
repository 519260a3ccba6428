package project

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/CargoLoad/internal/model"
)

func TestRandomProblemDeterministic(t *testing.T) {
	opts := DefaultGeneratorOptions()
	opts.Types = 5

	a, err := RandomProblem(3, 25, opts)
	require.NoError(t, err)
	b, err := RandomProblem(3, 25, opts)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, "3", a.ID)

	// Ids one full set apart share a seed.
	c, err := RandomProblem(28, 25, opts)
	require.NoError(t, err)
	assert.Equal(t, a.BoxTypes, c.BoxTypes)
}

func TestRandomProblemBoxTypes(t *testing.T) {
	opts := HarnessPresets()[1].Options()
	p, err := RandomProblem(1, 25, opts)
	require.NoError(t, err)
	require.NoError(t, p.Validate())
	require.Len(t, p.BoxTypes, 10)

	seen := make(map[model.Size]bool)
	cv := opts.Container.Volume()
	for i, bt := range p.BoxTypes {
		assert.Equal(t, i, bt.Type)
		assert.False(t, seen[bt.Size], "duplicate size %s", bt.Size)
		seen[bt.Size] = true
		for _, side := range []int{bt.Size.Length, bt.Size.Width, bt.Size.Height} {
			assert.GreaterOrEqual(t, side, 250)
			assert.LessOrEqual(t, side, 750)
		}
		assert.Equal(t, cv/10/bt.Volume(), bt.MaxCount)
		assert.Zero(t, bt.MinCount)
	}
	assert.LessOrEqual(t, p.MaxVolume(), cv)
}

func TestRandomProblemRejectsNarrowRange(t *testing.T) {
	opts := GeneratorOptions{Types: 10, Container: ReferenceContainer, BoxSideMin: 300, BoxSideMax: 300}
	_, err := RandomProblem(1, 1, opts)
	assert.Error(t, err)
}

func TestGeneratorOptionsValidate(t *testing.T) {
	assert.NoError(t, DefaultGeneratorOptions().Validate())
	assert.Error(t, GeneratorOptions{Types: 0, Container: ReferenceContainer, BoxSideMin: 1, BoxSideMax: 2}.Validate())
	assert.Error(t, GeneratorOptions{Types: 1, BoxSideMin: 1, BoxSideMax: 2}.Validate())
	assert.Error(t, GeneratorOptions{Types: 1, Container: ReferenceContainer, BoxSideMin: 5, BoxSideMax: 2}.Validate())
}

func TestGenerateProblemSet(t *testing.T) {
	opts := DefaultGeneratorOptions()
	opts.Types = 3
	problems, err := GenerateProblemSet(1, 4, opts)
	require.NoError(t, err)
	require.Len(t, problems, 4)
	for i, p := range problems {
		assert.Equal(t, []string{"5", "6", "7", "8"}[i], p.ID)
	}
}

func TestHarnessPresets(t *testing.T) {
	presets := HarnessPresets()
	require.Len(t, presets, 4)
	assert.Equal(t, "types_15.json", presets[2].FileName())
	for _, p := range presets {
		assert.Equal(t, 25, p.Count)
		assert.Equal(t, ReferenceContainer, p.Options().Container)
	}
}

func TestExactProblemHasKnownSolution(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	opts := DefaultGeneratorOptions()
	opts.Types = 6

	p, sol, err := ExactProblem(rng, opts)
	require.NoError(t, err)
	require.NoError(t, p.Validate())
	require.Len(t, p.BoxTypes, 6)

	volume, boxes := 0, 0
	orders := make(map[int]bool)
	for _, bt := range p.BoxTypes {
		count := sol.Counts[bt.Type]
		assert.GreaterOrEqual(t, count, bt.MinCount)
		assert.LessOrEqual(t, count, bt.MaxCount)
		assert.True(t, opts.Container.Fits(bt.Size))
		volume += count * bt.Volume()
		boxes += count
		orders[sol.Order[bt.Type]] = true
	}
	assert.Equal(t, sol.VolumeTotal, volume)
	assert.Equal(t, sol.BoxCount, boxes)
	assert.LessOrEqual(t, volume, opts.Container.Volume())
	assert.Len(t, orders, 6)
}

func TestExactProblemTooManyTypes(t *testing.T) {
	opts := GeneratorOptions{Types: 50, Container: ReferenceContainer, BoxSideMin: 300, BoxSideMax: 600}
	_, _, err := ExactProblem(rand.New(rand.NewSource(1)), opts)
	assert.Error(t, err)
}
