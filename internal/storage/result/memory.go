package result

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/newthinker/stockscreen/internal/core"
)

// MemoryStore is an in-memory result store.
type MemoryStore struct {
	mu      sync.RWMutex
	results []core.FilterResult
	seen    map[key]struct{}
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[key]struct{})}
}

// Save adds a result to the store.
func (m *MemoryStore) Save(ctx context.Context, r core.FilterResult) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := keyOf(r)
	if _, ok := m.seen[k]; ok {
		return false, nil
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	m.seen[k] = struct{}{}
	m.results = append(m.results, r)
	return true, nil
}

// List returns results matching the filter.
func (m *MemoryStore) List(ctx context.Context, filter ListFilter) ([]core.FilterResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []core.FilterResult{}
	for _, r := range m.results {
		if filter.matches(r) {
			result = append(result, r)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Strategy != b.Strategy {
			return a.Strategy < b.Strategy
		}
		return a.Code < b.Code
	})

	// Apply offset and limit
	if filter.Offset >= len(result) && filter.Offset > 0 {
		return []core.FilterResult{}, nil
	}
	if filter.Offset > 0 {
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}

	return result, nil
}

// Dates returns the distinct dates, newest first.
func (m *MemoryStore) Dates(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set := make(map[string]struct{})
	for _, r := range m.results {
		set[r.Date] = struct{}{}
	}
	dates := make([]string, 0, len(set))
	for d := range set {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}
