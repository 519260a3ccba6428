package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/CargoLoad/internal/config"
	"github.com/piwi3910/CargoLoad/internal/model"
)

func TestLocalStore_PutGetList(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())

	require.NoError(t, store.Put(ctx, "runs/b.json", []byte("b")))
	require.NoError(t, store.Put(ctx, "runs/a.json", []byte("a")))
	require.NoError(t, store.Put(ctx, "problems/1.json", []byte("p")))

	data, err := store.Get(ctx, "runs/a.json")
	require.NoError(t, err)
	assert.Equal(t, "a", string(data))

	keys, err := store.List(ctx, "runs")
	require.NoError(t, err)
	assert.Equal(t, []string{"runs/a.json", "runs/b.json"}, keys)

	keys, err = store.List(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestLocalStore_GetMissing(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	_, err := store.Get(context.Background(), "nope.json")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCatalog_Problems(t *testing.T) {
	ctx := context.Background()
	catalog := NewCatalog(NewLocalStore(t.TempDir()))

	p := model.Problem{
		ID:        "12",
		Container: model.Size{Length: 100, Width: 100, Height: 100},
		BoxTypes: []model.BoxType{
			model.NewBoxType(0, "A", 50, 50, 50, 0, 2),
			model.NewBoxType(1, "B", 100, 100, 25, 1, 4),
		},
	}
	require.NoError(t, catalog.SaveProblem(ctx, p))

	loaded, err := catalog.LoadProblem(ctx, "12")
	require.NoError(t, err)
	assert.Equal(t, p.Container, loaded.Container)
	require.Len(t, loaded.BoxTypes, 2)
	assert.Equal(t, 1, loaded.BoxTypes[1].MinCount)
	assert.Equal(t, 4, loaded.BoxTypes[1].MaxCount)

	ids, err := catalog.ProblemIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"12"}, ids)

	_, err = catalog.LoadProblem(ctx, "13")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCatalog_RejectsInvalidProblem(t *testing.T) {
	catalog := NewCatalog(NewLocalStore(t.TempDir()))
	err := catalog.SaveProblem(context.Background(), model.Problem{ID: "x"})
	assert.Error(t, err)
}

func TestCatalog_Runs(t *testing.T) {
	ctx := context.Background()
	catalog := NewCatalog(NewLocalStore(t.TempDir()))

	stats := model.Stats{
		ProblemID:        "12",
		BestValue:        model.Fitness{Occupancy: 0.5, Boxes: 3, Value: 30},
		GroupImprovement: model.ImprovementDuring,
		BestSolution:     []model.GeneAssignment{{Type: 0, Count: 2, Rotation: 1}},
	}
	require.NoError(t, catalog.SaveRun(ctx, "run-1", stats))

	loaded, err := catalog.LoadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, stats.BestValue, loaded.BestValue)
	assert.Equal(t, model.ImprovementDuring, loaded.GroupImprovement)
	assert.Equal(t, stats.BestSolution, loaded.BestSolution)
}

func TestOpen_Local(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Backend = config.StorageLocal
	cfg.Storage.Root = t.TempDir()

	store, closeFn, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer closeFn()

	_, ok := store.(*LocalStore)
	assert.True(t, ok)
}

func TestRedisStore_Key(t *testing.T) {
	assert.Equal(t, "cargoload:runs/1.json", NewRedisStore(nil, "cargoload", 0).key(RunKey("1")))
	assert.Equal(t, "problems/2.json", NewRedisStore(nil, "", 0).key(ProblemKey("2")))
}
