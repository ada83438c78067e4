package drift

import "context"

// HistoryStore is the append-only drift history, ordered by detection time.
// Unbounded; retention is an external concern.
type HistoryStore interface {
	Append(ctx context.Context, summary Summary) error

	// Latest returns the most recent summary, or sentinel.ErrNotFound when
	// no detection has run yet.
	Latest(ctx context.Context) (Summary, error)

	// ListRecent returns up to limit summaries, most recent first.
	ListRecent(ctx context.Context, limit int) ([]Summary, error)

	// All returns the full history in detection order. Snapshot export.
	All(ctx context.Context) ([]Summary, error)
}

// Restorer is implemented by stores that support snapshot restore.
type Restorer interface {
	Replace(ctx context.Context, summaries []Summary) error
}
