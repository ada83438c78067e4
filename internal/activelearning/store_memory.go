package activelearning

import (
	"context"
	"sync"

	"neurowatch/pkg/domain"
)

// InMemoryStore keeps pending queries in enqueue order.
type InMemoryStore struct {
	mu      sync.RWMutex
	queries []Query
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Enqueue(_ context.Context, query Query) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	return nil
}

func (s *InMemoryStore) Resolve(_ context.Context, subjectID domain.SubjectID) ([]Query, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := []Query{}
	kept := s.queries[:0]
	for _, q := range s.queries {
		if q.SubjectID == subjectID {
			removed = append(removed, q)
		} else {
			kept = append(kept, q)
		}
	}
	s.queries = kept
	return removed, nil
}

func (s *InMemoryStore) Recent(_ context.Context, limit int) ([]Query, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.queries) {
		limit = len(s.queries)
	}
	out := make([]Query, 0, limit)
	for i := len(s.queries) - 1; i >= len(s.queries)-limit; i-- {
		out = append(out, s.queries[i])
	}
	return out, nil
}

func (s *InMemoryStore) Depth(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.queries), nil
}

func (s *InMemoryStore) All(_ context.Context) ([]Query, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Query{}, s.queries...), nil
}

// Replace swaps the queue contents. Snapshot restore only.
func (s *InMemoryStore) Replace(_ context.Context, queries []Query) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append([]Query{}, queries...)
	return nil
}
