package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/piwi3910/CargoLoad/internal/model"
	"github.com/piwi3910/CargoLoad/internal/project"
)

const (
	problemsPrefix = "problems/"
	runsPrefix     = "runs/"
)

// ProblemKey is the object key of a stored problem.
func ProblemKey(id string) string { return problemsPrefix + id + ".json" }

// RunKey is the object key of stored run statistics.
func RunKey(runID string) string { return runsPrefix + runID + ".json" }

// Catalog keeps problems and run statistics as JSON documents in a BlobStore.
// Problems use the same layout as problem set files.
type Catalog struct {
	store BlobStore
}

func NewCatalog(store BlobStore) *Catalog {
	return &Catalog{store: store}
}

func (c *Catalog) SaveProblem(ctx context.Context, p model.Problem) error {
	if err := p.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(project.ToProblemFile(p))
	if err != nil {
		return fmt.Errorf("failed to marshal problem: %w", err)
	}
	return c.store.Put(ctx, ProblemKey(p.ID), data)
}

func (c *Catalog) LoadProblem(ctx context.Context, id string) (model.Problem, error) {
	data, err := c.store.Get(ctx, ProblemKey(id))
	if err != nil {
		return model.Problem{}, err
	}
	var pf project.ProblemFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return model.Problem{}, fmt.Errorf("failed to parse problem %s: %w", id, err)
	}
	return pf.Problem()
}

// ProblemIDs lists the ids of every stored problem.
func (c *Catalog) ProblemIDs(ctx context.Context) ([]string, error) {
	keys, err := c.store.List(ctx, problemsPrefix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimSuffix(path.Base(k), ".json"))
	}
	return ids, nil
}

func (c *Catalog) SaveRun(ctx context.Context, runID string, stats model.Stats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal run %s: %w", runID, err)
	}
	return c.store.Put(ctx, RunKey(runID), data)
}

func (c *Catalog) LoadRun(ctx context.Context, runID string) (model.Stats, error) {
	data, err := c.store.Get(ctx, RunKey(runID))
	if err != nil {
		return model.Stats{}, err
	}
	var stats model.Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		return model.Stats{}, fmt.Errorf("failed to parse run %s: %w", runID, err)
	}
	return stats, nil
}
