package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/piwi3910/CargoLoad/internal/model"
)

// MemoryStore is a RunStore kept in process memory, used when no database is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]model.Run
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]model.Run)}
}

func (m *MemoryStore) InsertRun(ctx context.Context, run *model.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = *run
	return nil
}

func (m *MemoryStore) UpdateRun(ctx context.Context, run *model.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[run.ID]; !ok {
		return ErrRunNotFound
	}
	m.runs[run.ID] = *run
	return nil
}

func (m *MemoryStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return &run, nil
}

func (m *MemoryStore) ListRuns(ctx context.Context, problemID string, limit int) ([]*model.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	runs := make([]*model.Run, 0, len(m.runs))
	for _, run := range m.runs {
		if problemID != "" && run.ProblemID != problemID {
			continue
		}
		run := run
		runs = append(runs, &run)
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}
