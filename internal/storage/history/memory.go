package history

import (
	"context"
	"sync"

	"github.com/alphatic/alphatic/internal/core"
)

// MemoryStore is an in-memory evaluation store with a bounded capacity:
// once full, the oldest evaluations are dropped.
type MemoryStore struct {
	evals   []core.Evaluation
	maxSize int
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory store with max capacity.
func NewMemoryStore(maxSize int) *MemoryStore {
	return &MemoryStore{
		evals:   make([]core.Evaluation, 0, maxSize),
		maxSize: maxSize,
	}
}

// Save adds an evaluation to the store.
func (m *MemoryStore) Save(ctx context.Context, eval core.Evaluation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.evals = append(m.evals, eval)

	// Trim if over capacity (remove oldest)
	if len(m.evals) > m.maxSize {
		m.evals = m.evals[len(m.evals)-m.maxSize:]
	}

	return nil
}

// Latest returns the most recent evaluation for a ticker.
func (m *MemoryStore) Latest(ctx context.Context, ticker string) (*core.Evaluation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.evals) - 1; i >= 0; i-- {
		if m.evals[i].Ticker == ticker {
			eval := m.evals[i]
			return &eval, nil
		}
	}
	return nil, core.WrapErrorf(core.ErrEvaluationNotFound, "no evaluations for %s", ticker)
}

// List returns evaluations matching the filter.
func (m *MemoryStore) List(ctx context.Context, filter ListFilter) ([]core.Evaluation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []core.Evaluation
	for _, eval := range m.evals {
		if m.matches(eval, filter) {
			result = append(result, eval)
		}
	}

	if filter.Offset > 0 && filter.Offset < len(result) {
		result = result[filter.Offset:]
	} else if filter.Offset >= len(result) && filter.Offset > 0 {
		return []core.Evaluation{}, nil
	}

	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}

	return result, nil
}

// Count returns the count of matching evaluations.
func (m *MemoryStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, eval := range m.evals {
		if m.matches(eval, filter) {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) matches(eval core.Evaluation, filter ListFilter) bool {
	if filter.Ticker != "" && eval.Ticker != filter.Ticker {
		return false
	}
	if filter.CallSite != "" && eval.CallSite != filter.CallSite {
		return false
	}
	if filter.CycleID != "" && eval.CycleID != filter.CycleID {
		return false
	}
	if filter.Verdict != "" && eval.Verdict != filter.Verdict {
		return false
	}
	if filter.Action != "" && eval.Technical.Action != filter.Action {
		return false
	}
	if !filter.From.IsZero() && eval.CreatedAt.Before(filter.From) {
		return false
	}
	if !filter.To.IsZero() && eval.CreatedAt.After(filter.To) {
		return false
	}
	return true
}
