package audit

import "context"

// Store persists audit events. Implementations are append-only; events are
// never updated or deleted.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListRecent(ctx context.Context, limit int) ([]Event, error)
	ListBySubject(ctx context.Context, subjectID string) ([]Event, error)
}
