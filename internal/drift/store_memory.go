package drift

import (
	"context"
	"sync"

	"neurowatch/pkg/platform/sentinel"
)

// InMemoryHistoryStore keeps drift summaries in append order.
type InMemoryHistoryStore struct {
	mu        sync.RWMutex
	summaries []Summary
}

func NewInMemoryHistoryStore() *InMemoryHistoryStore {
	return &InMemoryHistoryStore{}
}

func (s *InMemoryHistoryStore) Append(_ context.Context, summary Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries = append(s.summaries, summary)
	return nil
}

func (s *InMemoryHistoryStore) Latest(_ context.Context) (Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.summaries) == 0 {
		return Summary{}, sentinel.ErrNotFound
	}
	return s.summaries[len(s.summaries)-1], nil
}

func (s *InMemoryHistoryStore) ListRecent(_ context.Context, limit int) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit > len(s.summaries) {
		limit = len(s.summaries)
	}
	out := make([]Summary, 0, limit)
	for i := len(s.summaries) - 1; i >= len(s.summaries)-limit; i-- {
		out = append(out, s.summaries[i])
	}
	return out, nil
}

func (s *InMemoryHistoryStore) All(_ context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Summary{}, s.summaries...), nil
}

// Replace swaps the history contents. Snapshot restore only.
func (s *InMemoryHistoryStore) Replace(_ context.Context, summaries []Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries = append([]Summary{}, summaries...)
	return nil
}
