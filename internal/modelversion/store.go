package modelversion

import "context"

// Store is the append-only activation history.
type Store interface {
	Append(ctx context.Context, record Record) error

	// Latest returns the most recent activation, or sentinel.ErrNotFound
	// when no model has been activated yet.
	Latest(ctx context.Context) (Record, error)

	Count(ctx context.Context) (int, error)

	// All returns activations in activation order. Snapshot export.
	All(ctx context.Context) ([]Record, error)
}

// Restorer is implemented by stores that support snapshot restore.
type Restorer interface {
	Replace(ctx context.Context, records []Record) error
}
