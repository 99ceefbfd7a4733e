package feedback

import (
	"context"
	"sync"
)

// MemoryStore is a Store held in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	queries map[string]*Query
	entries []*Entry
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{queries: make(map[string]*Query)}
}

// PutQuery implements Store.
func (s *MemoryStore) PutQuery(_ context.Context, q *Query) error {
	cp := *q
	s.mu.Lock()
	s.queries[q.ID] = &cp
	s.mu.Unlock()
	return nil
}

// GetQuery implements Store.
func (s *MemoryStore) GetQuery(_ context.Context, id string) (*Query, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.queries[id]
	if !ok {
		return nil, ErrNotFound{ID: id}
	}
	cp := *q
	return &cp, nil
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, e *Entry) error {
	cp := *e
	s.mu.Lock()
	s.entries = append(s.entries, &cp)
	s.mu.Unlock()
	return nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Entry, 0, len(s.entries))
	for _, e := range s.entries {
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

// ListByQuery implements Store.
func (s *MemoryStore) ListByQuery(_ context.Context, queryID string) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Entry
	for _, e := range s.entries {
		if e.QueryID == queryID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}
