package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/CargoLoad/internal/model"
)

func TestSaveAndLoadProblems(t *testing.T) {
	path := filepath.Join(t.TempDir(), "set", "types_5.json")
	opts := DefaultGeneratorOptions()
	opts.Types = 5
	problems, err := GenerateProblemSet(0, 3, opts)
	require.NoError(t, err)

	require.NoError(t, SaveProblems(path, problems))

	loaded, err := LoadProblems(path)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	for i := range problems {
		assert.Equal(t, problems[i].ID, loaded[i].ID)
		assert.Equal(t, problems[i].Container, loaded[i].Container)
		require.Len(t, loaded[i].BoxTypes, 5)
		for j, bt := range problems[i].BoxTypes {
			got := loaded[i].BoxTypes[j]
			assert.Equal(t, bt.Size, got.Size)
			assert.Equal(t, bt.MaxCount, got.MaxCount)
			assert.InDelta(t, bt.Value, got.Value, 1e-9)
		}
	}
}

func TestLoadProblemsNumericID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "problems.json")
	data := `[{"id": 7, "container": [1000, 500, 500], "container_volume": 250000000, "types_count": 1,
	  "box_types": [{"type": 0, "size": [100, 100, 100], "value": 1, "volume": 1000000, "min_count": 0, "max_count": 4}]}]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	problems, err := LoadProblems(path)
	require.NoError(t, err)
	require.Len(t, problems, 1)
	assert.Equal(t, "7", problems[0].ID)
	assert.Equal(t, model.Size{Length: 1000, Width: 500, Height: 500}, problems[0].Container)
	assert.Equal(t, 4, problems[0].BoxTypes[0].MaxCount)
}

func TestLoadProblemsSingleObject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "problem.json")
	data := `{"container": [1000, 500, 500], "box_types": [{"size": [100, 100, 100], "value": 1, "max_count": 2}]}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	problems, err := LoadProblems(path)
	require.NoError(t, err)
	require.Len(t, problems, 1)
	assert.Equal(t, "1", problems[0].ID)
	assert.Equal(t, 0, problems[0].BoxTypes[0].Type)
}

func TestLoadProblemsInvalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("[{"), 0644))
	_, err := LoadProblems(bad)
	assert.Error(t, err)

	negative := filepath.Join(dir, "negative.json")
	data := `[{"id": "x", "container": [1000, 500, 500], "box_types": [{"size": [0, 100, 100], "max_count": 2}]}]`
	require.NoError(t, os.WriteFile(negative, []byte(data), 0644))
	_, err = LoadProblems(negative)
	assert.Error(t, err)

	_, err = LoadProblems(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestSaveExactProblemKeepsSolution(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exact.json")
	p := model.NewProblem(model.Size{Length: 1000, Width: 500, Height: 500},
		[]model.BoxType{model.NewBoxType(0, "", 500, 500, 500, 2, 2)})
	sol := ExactSolution{VolumeTotal: 250000000, BoxCount: 2, ValueTotal: 250000000,
		Counts: map[int]int{0: 2}, Order: map[int]int{0: 0}}

	require.NoError(t, SaveExactProblem(path, p, sol))

	files, err := LoadProblemFiles(path)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.NotNil(t, files[0].Solution)
	assert.Equal(t, 2, files[0].Solution.Counts[0])
	assert.Equal(t, 250000000, files[0].ContainerVolume)
}
