package eventlog

import (
	"context"
	"time"

	id "neurowatch/pkg/domain"
)

// Store is the append-only prediction log. Implementations must keep Append
// safe under concurrent invocation and must never return a torn event from a
// windowed query; queries running concurrently with appends may miss events
// appended during their own execution (eventual-consistency read, not a
// snapshot).
//
// There is no deletion API. Retention and compaction are external concerns.
type Store interface {
	// Append adds one validated event. It fails only on storage faults;
	// validation happens before the store is reached.
	Append(ctx context.Context, event PredictionEvent) error

	// QueryWindow returns every event with Timestamp >= since, each exactly
	// once, in no guaranteed order.
	QueryWindow(ctx context.Context, since time.Time) ([]PredictionEvent, error)

	// Get returns one event by ID, or sentinel.ErrNotFound.
	Get(ctx context.Context, eventID id.EventID) (PredictionEvent, error)

	// AttachLabel attaches ground truth to an event exactly once. A second
	// attach returns sentinel.ErrAlreadyLabeled; an unknown event returns
	// sentinel.ErrNotFound.
	AttachLabel(ctx context.Context, eventID id.EventID, label int) error

	// AttachLabelBySubject labels the most recent unlabeled event for the
	// subject (labels often arrive keyed by subject, not event). Returns the
	// labeled event's ID, or sentinel.ErrNotFound when no unlabeled event
	// exists for the subject.
	AttachLabelBySubject(ctx context.Context, subjectID id.SubjectID, label int) (id.EventID, error)

	// Counts reports total and labeled event counts.
	Counts(ctx context.Context) (Counts, error)

	// All returns every event. Used by the snapshot exporter and the
	// retrain policy's accumulated-label count; not a hot path.
	All(ctx context.Context) ([]PredictionEvent, error)
}

// Restorer is implemented by stores that support snapshot restore. It is
// deliberately kept off Store so ordinary callers cannot reach it.
type Restorer interface {
	Replace(ctx context.Context, events []PredictionEvent) error
}
