package activelearning

import (
	"context"

	"neurowatch/pkg/domain"
)

// Store holds the pending review queue.
type Store interface {
	Enqueue(ctx context.Context, query Query) error

	// Resolve removes every pending query for the subject and returns the
	// removed queries. Resolving a subject with no pending queries is not an
	// error; it returns an empty slice.
	Resolve(ctx context.Context, subjectID domain.SubjectID) ([]Query, error)

	// Recent returns up to limit queries, most recently enqueued first.
	Recent(ctx context.Context, limit int) ([]Query, error)

	// Depth is the number of pending queries.
	Depth(ctx context.Context) (int, error)

	// All returns every pending query in enqueue order. Snapshot export.
	All(ctx context.Context) ([]Query, error)
}

// Restorer is implemented by stores that support snapshot restore.
type Restorer interface {
	Replace(ctx context.Context, queries []Query) error
}
