package report

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tkaraxa/sibyl/internal/core"
)

// MemoryStore is an in-memory report store with a bounded capacity.
type MemoryStore struct {
	reports []Report
	maxSize int
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory store with max capacity.
func NewMemoryStore(maxSize int) *MemoryStore {
	return &MemoryStore{
		reports: make([]Report, 0, maxSize),
		maxSize: maxSize,
	}
}

// Save adds an analysis to the store, assigning a fresh ID.
func (m *MemoryStore) Save(ctx context.Context, analysis core.Analysis) (Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := Report{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Analysis:  analysis,
	}
	m.reports = append(m.reports, r)

	// Trim if over capacity (remove oldest)
	if len(m.reports) > m.maxSize {
		m.reports = m.reports[len(m.reports)-m.maxSize:]
	}

	return r, nil
}

// GetByID retrieves a report by ID.
func (m *MemoryStore) GetByID(ctx context.Context, id string) (*Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.reports {
		if m.reports[i].ID == id {
			r := m.reports[i]
			return &r, nil
		}
	}
	return nil, core.ErrNotFound
}

// List returns reports matching the filter, newest first.
func (m *MemoryStore) List(ctx context.Context, filter ListFilter) ([]Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Report, 0)
	for i := len(m.reports) - 1; i >= 0; i-- {
		if m.matches(m.reports[i], filter) {
			result = append(result, m.reports[i])
		}
	}

	// Apply offset and limit
	if filter.Offset > 0 && filter.Offset < len(result) {
		result = result[filter.Offset:]
	} else if filter.Offset >= len(result) && filter.Offset > 0 {
		return []Report{}, nil
	}

	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}

	return result, nil
}

// Count returns the count of matching reports.
func (m *MemoryStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, r := range m.reports {
		if m.matches(r, filter) {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) matches(r Report, filter ListFilter) bool {
	if filter.Asset != "" && r.Analysis.Asset != filter.Asset {
		return false
	}
	if filter.Action != "" && r.Analysis.Recommendation.Action != filter.Action {
		return false
	}
	if !filter.From.IsZero() && r.CreatedAt.Before(filter.From) {
		return false
	}
	if !filter.To.IsZero() && r.CreatedAt.After(filter.To) {
		return false
	}
	return true
}
