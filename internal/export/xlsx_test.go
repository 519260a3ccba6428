package export

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.xlsx")
	require.NoError(t, ExportManifest(path, buildTestPlan()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{solutionSheet, placementSheet}, f.GetSheetList())

	solution, err := f.GetRows(solutionSheet)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(solution), 4)
	assert.Equal(t, "Step", solution[0][0])
	assert.Equal(t, "Crate", solution[1][2])
	assert.Equal(t, "yes", solution[2][6])

	placements, err := f.GetRows(placementSheet)
	require.NoError(t, err)
	require.Len(t, placements, 4)
	assert.Equal(t, []string{"3", "1", "Drum", "0", "0", "500", "500", "500", "500"}, placements[3])
}

func TestExportManifestEmpty(t *testing.T) {
	plan := buildTestPlan()
	plan.Stats.Placements = nil

	err := ExportManifest(filepath.Join(t.TempDir(), "empty.xlsx"), plan)
	assert.True(t, errors.Is(err, ErrNoPlacements))
}
