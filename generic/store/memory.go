// Package store provides in-memory Repository implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/budget-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// ExtraMatcher is implemented by entities that support the typed filters of
// generic.Extra. Entities without it ignore those filters.
type ExtraMatcher interface {
	MatchesExtra(e generic.Extra) bool
}

type Memory[T generic.Entity] struct {
	mu      sync.RWMutex
	records map[string]T
}

func NewMemory[T generic.Entity]() *Memory[T] {
	return &Memory[T]{records: make(map[string]T)}
}

// Get returns the record or generic.ErrNotFound.
func (m *Memory[T]) Get(_ context.Context, id string) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.records[id]
	if !ok {
		var zero T
		return zero, generic.ErrNotFound
	}
	return v, nil
}

// Save inserts or replaces the record.
func (m *Memory[T]) Save(_ context.Context, v T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[v.EntityID()] = v
	return nil
}

func (m *Memory[T]) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; !ok {
		return generic.ErrNotFound
	}
	delete(m.records, id)
	return nil
}

// List filters by q.Search and q.Extra, orders by SortKey (newest first
// unless an ascending order is requested) and slices the window.
func (m *Memory[T]) List(_ context.Context, q generic.Query) (generic.Page[T], error) {
	if err := q.Validate(); err != nil {
		return generic.Page[T]{}, err
	}

	m.mu.RLock()
	matched := make([]T, 0, len(m.records))
	for _, v := range m.records {
		if !v.Matches(q.Search) {
			continue
		}
		if em, ok := any(v).(ExtraMatcher); ok && !em.MatchesExtra(q.Extra) {
			continue
		}
		matched = append(matched, v)
	}
	m.mu.RUnlock()

	ascending := q.OrderBy != "" && !q.Descending
	sort.SliceStable(matched, func(i, j int) bool {
		ki, kj := matched[i].SortKey(), matched[j].SortKey()
		if ki.Equal(kj) {
			return matched[i].EntityID() < matched[j].EntityID()
		}
		if ascending {
			return ki.Before(kj)
		}
		return ki.After(kj)
	})

	return generic.NewPage(generic.Window(matched, q), len(matched)), nil
}

// Len returns the number of stored records.
func (m *Memory[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

var _ generic.Repository[generic.Entity] = (*Memory[generic.Entity])(nil)
