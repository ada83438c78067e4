// Package postgres implements the event log on PostgreSQL via the pgx stdlib
// driver. Features and outcome payloads are stored as JSONB so drift and
// fairness grouping can evolve without schema churn.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"neurowatch/internal/eventlog"
	id "neurowatch/pkg/domain"
	"neurowatch/pkg/platform/sentinel"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event eventlog.PredictionEvent) error {
	features, err := json.Marshal(event.Features)
	if err != nil {
		return fmt.Errorf("marshal features: %w", err)
	}
	var outcome []byte
	if event.Outcome != nil {
		if outcome, err = json.Marshal(event.Outcome); err != nil {
			return fmt.Errorf("marshal outcome: %w", err)
		}
	}

	query := `
		INSERT INTO prediction_events (
			id, ts, subject_id, features, probability, confidence,
			model_version, actual_label, outcome
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(event.ID),
		event.Timestamp,
		string(event.SubjectID),
		features,
		event.Prediction.Probability,
		event.Prediction.Confidence,
		event.Prediction.ModelVersion,
		event.ActualLabel,
		outcome,
	)
	if err != nil {
		return fmt.Errorf("insert prediction event: %w", err)
	}
	return nil
}

func (s *Store) QueryWindow(ctx context.Context, since time.Time) ([]eventlog.PredictionEvent, error) {
	query := selectColumns + ` FROM prediction_events WHERE ts >= $1`
	rows, err := s.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("query prediction events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (s *Store) Get(ctx context.Context, eventID id.EventID) (eventlog.PredictionEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` FROM prediction_events WHERE id = $1`,
		uuid.UUID(eventID),
	)
	if err != nil {
		return eventlog.PredictionEvent{}, fmt.Errorf("query prediction event: %w", err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return eventlog.PredictionEvent{}, err
	}
	if len(events) == 0 {
		return eventlog.PredictionEvent{}, sentinel.ErrNotFound
	}
	return events[0], nil
}

// AttachLabel is a single conditional UPDATE, so the attach-once invariant
// holds even under concurrent attempts.
func (s *Store) AttachLabel(ctx context.Context, eventID id.EventID, label int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE prediction_events SET actual_label = $2 WHERE id = $1 AND actual_label IS NULL`,
		uuid.UUID(eventID), label,
	)
	if err != nil {
		return fmt.Errorf("attach label: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("attach label rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists bool
	err = s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM prediction_events WHERE id = $1)`,
		uuid.UUID(eventID),
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check event existence: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrAlreadyLabeled
}

func (s *Store) AttachLabelBySubject(ctx context.Context, subjectID id.SubjectID, label int) (id.EventID, error) {
	var eventID uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		UPDATE prediction_events SET actual_label = $2
		WHERE id = (
			SELECT id FROM prediction_events
			WHERE subject_id = $1 AND actual_label IS NULL
			ORDER BY ts DESC
			LIMIT 1
		)
		RETURNING id
	`, string(subjectID), label).Scan(&eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return id.EventID{}, sentinel.ErrNotFound
	}
	if err != nil {
		return id.EventID{}, fmt.Errorf("attach label by subject: %w", err)
	}
	return id.EventID(eventID), nil
}

func (s *Store) Counts(ctx context.Context) (eventlog.Counts, error) {
	var c eventlog.Counts
	err := s.db.QueryRowContext(ctx, `
		SELECT count(*), count(actual_label) FROM prediction_events
	`).Scan(&c.Total, &c.Labeled)
	if err != nil {
		return eventlog.Counts{}, fmt.Errorf("count prediction events: %w", err)
	}
	return c, nil
}

func (s *Store) All(ctx context.Context) ([]eventlog.PredictionEvent, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` FROM prediction_events ORDER BY ts`)
	if err != nil {
		return nil, fmt.Errorf("query prediction events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// Replace swaps the full log contents inside one transaction. Snapshot
// restore only.
func (s *Store) Replace(ctx context.Context, events []eventlog.PredictionEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin restore: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `TRUNCATE prediction_events`); err != nil {
		return fmt.Errorf("truncate prediction events: %w", err)
	}
	for _, event := range events {
		features, err := json.Marshal(event.Features)
		if err != nil {
			return fmt.Errorf("marshal features: %w", err)
		}
		var outcome []byte
		if event.Outcome != nil {
			if outcome, err = json.Marshal(event.Outcome); err != nil {
				return fmt.Errorf("marshal outcome: %w", err)
			}
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO prediction_events (
				id, ts, subject_id, features, probability, confidence,
				model_version, actual_label, outcome
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			uuid.UUID(event.ID), event.Timestamp, string(event.SubjectID), features,
			event.Prediction.Probability, event.Prediction.Confidence,
			event.Prediction.ModelVersion, event.ActualLabel, outcome,
		)
		if err != nil {
			return fmt.Errorf("restore prediction event: %w", err)
		}
	}
	return tx.Commit()
}

const selectColumns = `
	SELECT id, ts, subject_id, features, probability, confidence,
	       model_version, actual_label, outcome
`

func scanEvents(rows *sql.Rows) ([]eventlog.PredictionEvent, error) {
	var events []eventlog.PredictionEvent

	for rows.Next() {
		var (
			event     eventlog.PredictionEvent
			eventID   uuid.UUID
			subjectID string
			features  []byte
			outcome   []byte
			label     sql.NullInt64
		)
		err := rows.Scan(
			&eventID,
			&event.Timestamp,
			&subjectID,
			&features,
			&event.Prediction.Probability,
			&event.Prediction.Confidence,
			&event.Prediction.ModelVersion,
			&label,
			&outcome,
		)
		if err != nil {
			return nil, fmt.Errorf("scan prediction event: %w", err)
		}

		event.ID = id.EventID(eventID)
		event.SubjectID = id.SubjectID(subjectID)
		if len(features) > 0 {
			if err := json.Unmarshal(features, &event.Features); err != nil {
				return nil, fmt.Errorf("unmarshal features: %w", err)
			}
		}
		if len(outcome) > 0 {
			if err := json.Unmarshal(outcome, &event.Outcome); err != nil {
				return nil, fmt.Errorf("unmarshal outcome: %w", err)
			}
		}
		if label.Valid {
			l := int(label.Int64)
			event.ActualLabel = &l
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prediction events: %w", err)
	}
	return events, nil
}
