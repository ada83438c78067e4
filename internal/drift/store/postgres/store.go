package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"neurowatch/internal/drift"
	"neurowatch/pkg/platform/sentinel"
)

// Store persists drift detection history in the drift_history table. Drifted
// feature names are stored as JSONB.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, summary drift.Summary) error {
	features, err := json.Marshal(summary.DriftedFeatures)
	if err != nil {
		return fmt.Errorf("marshal drifted features: %w", err)
	}

	query := `
		INSERT INTO drift_history (detected_at, drift_detected, max_drift_score, drift_threshold, drifted_features)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = s.db.ExecContext(ctx, query,
		summary.DetectedAt,
		summary.Detected,
		summary.MaxScore,
		summary.Threshold,
		features,
	)
	if err != nil {
		return fmt.Errorf("insert drift summary: %w", err)
	}
	return nil
}

func (s *Store) Latest(ctx context.Context) (drift.Summary, error) {
	query := `
		SELECT detected_at, drift_detected, max_drift_score, drift_threshold, drifted_features
		FROM drift_history
		ORDER BY detected_at DESC, id DESC
		LIMIT 1
	`
	summary, err := scanSummary(s.db.QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return drift.Summary{}, sentinel.ErrNotFound
	}
	if err != nil {
		return drift.Summary{}, fmt.Errorf("query latest drift summary: %w", err)
	}
	return summary, nil
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]drift.Summary, error) {
	query := `
		SELECT detected_at, drift_detected, max_drift_score, drift_threshold, drifted_features
		FROM drift_history
		ORDER BY detected_at DESC, id DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query drift history: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

func (s *Store) All(ctx context.Context) ([]drift.Summary, error) {
	query := `
		SELECT detected_at, drift_detected, max_drift_score, drift_threshold, drifted_features
		FROM drift_history
		ORDER BY detected_at ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query drift history: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

// Replace swaps the full history inside one transaction. Snapshot restore.
func (s *Store) Replace(ctx context.Context, summaries []drift.Summary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `TRUNCATE drift_history`); err != nil {
		return fmt.Errorf("truncate drift history: %w", err)
	}

	query := `
		INSERT INTO drift_history (detected_at, drift_detected, max_drift_score, drift_threshold, drifted_features)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, summary := range summaries {
		features, err := json.Marshal(summary.DriftedFeatures)
		if err != nil {
			return fmt.Errorf("marshal drifted features: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query,
			summary.DetectedAt, summary.Detected, summary.MaxScore, summary.Threshold, features,
		); err != nil {
			return fmt.Errorf("insert drift summary: %w", err)
		}
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner) (drift.Summary, error) {
	var (
		summary  drift.Summary
		features []byte
	)
	err := row.Scan(&summary.DetectedAt, &summary.Detected, &summary.MaxScore, &summary.Threshold, &features)
	if err != nil {
		return drift.Summary{}, err
	}
	if len(features) > 0 {
		if err := json.Unmarshal(features, &summary.DriftedFeatures); err != nil {
			return drift.Summary{}, fmt.Errorf("unmarshal drifted features: %w", err)
		}
	}
	return summary, nil
}

func scanSummaries(rows *sql.Rows) ([]drift.Summary, error) {
	var summaries []drift.Summary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan drift summary: %w", err)
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate drift history: %w", err)
	}
	return summaries, nil
}
