package testkit

import (
	"context"
	"sync"

	"neurosync/domain/core"
	"neurosync/domain/run"
	"neurosync/domain/signal"
)

// MemoryRepository is a threadsafe in-memory ports.ResultRepository used
// by tests and database-less deployments.
type MemoryRepository struct {
	mu      sync.RWMutex
	runs    map[core.RunID]*run.AnalysisRun
	order   []core.RunID
	results map[core.RunID]*signal.PLVResult
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		runs:    make(map[core.RunID]*run.AnalysisRun),
		results: make(map[core.RunID]*signal.PLVResult),
	}
}

func (m *MemoryRepository) CreateRun(_ context.Context, r *run.AnalysisRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *r
	m.runs[r.ID] = &copied
	m.order = append(m.order, r.ID)
	return nil
}

func (m *MemoryRepository) UpdateRun(_ context.Context, r *run.AnalysisRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[r.ID]; !ok {
		return core.NewNotFoundError("run", r.ID.String())
	}
	copied := *r
	m.runs[r.ID] = &copied
	return nil
}

func (m *MemoryRepository) GetRun(_ context.Context, id core.RunID) (*run.AnalysisRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.runs[id]
	if !ok {
		return nil, core.NewNotFoundError("run", id.String())
	}
	copied := *r
	return &copied, nil
}

func (m *MemoryRepository) ListRuns(_ context.Context, limit, offset int) ([]*run.AnalysisRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if offset >= len(m.order) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(m.order) {
		end = len(m.order)
	}
	out := make([]*run.AnalysisRun, 0, end-offset)
	// Most recent first
	for i := len(m.order) - 1 - offset; i >= len(m.order)-end; i-- {
		copied := *m.runs[m.order[i]]
		out = append(out, &copied)
	}
	return out, nil
}

func (m *MemoryRepository) SaveResult(_ context.Context, id core.RunID, result *signal.PLVResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[id] = result
	return nil
}

func (m *MemoryRepository) GetResult(_ context.Context, id core.RunID) (*signal.PLVResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result, ok := m.results[id]
	if !ok {
		return nil, core.NewNotFoundError("result", id.String())
	}
	return result, nil
}
