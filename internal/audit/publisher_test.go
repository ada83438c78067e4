package audit

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (c *captureSink) Publish(_ context.Context, event Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *captureSink) snapshot() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

func TestPublisherStoresAndForwards(t *testing.T) {
	store := NewMemoryStore()
	sink := &captureSink{}
	pub := NewPublisher(store, sink, slog.Default())

	err := pub.Emit(context.Background(), Event{
		SubjectID: "subject-1",
		Action:    ActionLabelAttached,
		Reason:    "outcome reported",
	})
	require.NoError(t, err)
	pub.Close()

	stored, err := store.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, ActionLabelAttached, stored[0].Action)
	require.NotZero(t, stored[0].ID)
	require.False(t, stored[0].Timestamp.IsZero())

	forwarded := sink.snapshot()
	require.Len(t, forwarded, 1)
	require.Equal(t, stored[0].ID, forwarded[0].ID)
}

func TestPublisherWithoutSink(t *testing.T) {
	store := NewMemoryStore()
	pub := NewPublisher(store, nil, slog.Default())
	defer pub.Close()

	require.NoError(t, pub.Emit(context.Background(), Event{Action: ActionDriftDetected}))

	stored, err := store.ListRecent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, stored, 1)
}

func TestMemoryStoreListBySubject(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, subject := range []string{"a", "b", "a"} {
		require.NoError(t, store.Append(ctx, Event{
			SubjectID: subject,
			Action:    ActionQueryResolved,
			Timestamp: time.Now(),
		}))
	}

	events, err := store.ListBySubject(ctx, "a")
	require.NoError(t, err)
	require.Len(t, events, 2)

	recent, err := store.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, "a", recent[0].SubjectID)
	require.Equal(t, "b", recent[1].SubjectID)
}
