package eventlog

import (
	"context"
	"sync"
	"time"

	id "neurowatch/pkg/domain"
	"neurowatch/pkg/platform/sentinel"
)

// InMemoryStore keeps the log in process memory. Reads copy events so
// concurrent appends can never hand a caller a torn record.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []PredictionEvent
	byID   map[id.EventID]int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byID: make(map[id.EventID]int)}
}

func (s *InMemoryStore) Append(_ context.Context, event PredictionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[event.ID] = len(s.events)
	s.events = append(s.events, cloneEvent(event))
	return nil
}

func (s *InMemoryStore) QueryWindow(_ context.Context, since time.Time) ([]PredictionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []PredictionEvent
	for i := range s.events {
		if !s.events[i].Timestamp.Before(since) {
			out = append(out, cloneEvent(s.events[i]))
		}
	}
	return out, nil
}

func (s *InMemoryStore) Get(_ context.Context, eventID id.EventID) (PredictionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[eventID]
	if !ok {
		return PredictionEvent{}, sentinel.ErrNotFound
	}
	return cloneEvent(s.events[i]), nil
}

func (s *InMemoryStore) AttachLabel(_ context.Context, eventID id.EventID, label int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.byID[eventID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if s.events[i].ActualLabel != nil {
		return sentinel.ErrAlreadyLabeled
	}
	s.events[i].ActualLabel = &label
	return nil
}

func (s *InMemoryStore) AttachLabelBySubject(_ context.Context, subjectID id.SubjectID, label int) (id.EventID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Latest unlabeled event for the subject wins.
	best := -1
	for i := range s.events {
		if s.events[i].SubjectID != subjectID || s.events[i].ActualLabel != nil {
			continue
		}
		if best == -1 || s.events[i].Timestamp.After(s.events[best].Timestamp) {
			best = i
		}
	}
	if best == -1 {
		return id.EventID{}, sentinel.ErrNotFound
	}
	s.events[best].ActualLabel = &label
	return s.events[best].ID, nil
}

func (s *InMemoryStore) Counts(_ context.Context) (Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := Counts{Total: len(s.events)}
	for i := range s.events {
		if s.events[i].ActualLabel != nil {
			c.Labeled++
		}
	}
	return c, nil
}

func (s *InMemoryStore) All(_ context.Context) ([]PredictionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]PredictionEvent, 0, len(s.events))
	for i := range s.events {
		out = append(out, cloneEvent(s.events[i]))
	}
	return out, nil
}

// Replace swaps the full log contents. Snapshot restore only.
func (s *InMemoryStore) Replace(_ context.Context, events []PredictionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = make([]PredictionEvent, 0, len(events))
	s.byID = make(map[id.EventID]int, len(events))
	for _, e := range events {
		s.byID[e.ID] = len(s.events)
		s.events = append(s.events, cloneEvent(e))
	}
	return nil
}

// cloneEvent deep-copies the mutable parts (maps, label pointer) so callers
// can never alias store-internal state.
func cloneEvent(e PredictionEvent) PredictionEvent {
	out := e
	if e.Features != nil {
		out.Features = make(map[string]any, len(e.Features))
		for k, v := range e.Features {
			out.Features[k] = v
		}
	}
	if e.Outcome != nil {
		out.Outcome = make(map[string]any, len(e.Outcome))
		for k, v := range e.Outcome {
			out.Outcome[k] = v
		}
	}
	if e.ActualLabel != nil {
		label := *e.ActualLabel
		out.ActualLabel = &label
	}
	return out
}
