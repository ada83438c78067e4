package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"neurowatch/internal/modelversion"
	"neurowatch/pkg/platform/sentinel"
)

// Store persists model activations in the model_versions table.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, record modelversion.Record) error {
	query := `INSERT INTO model_versions (version, activated_at) VALUES ($1, $2)`
	if _, err := s.db.ExecContext(ctx, query, record.Version, record.ActivatedAt); err != nil {
		return fmt.Errorf("insert model version: %w", err)
	}
	return nil
}

func (s *Store) Latest(ctx context.Context) (modelversion.Record, error) {
	query := `
		SELECT version, activated_at
		FROM model_versions
		ORDER BY activated_at DESC, id DESC
		LIMIT 1
	`
	var record modelversion.Record
	err := s.db.QueryRowContext(ctx, query).Scan(&record.Version, &record.ActivatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return modelversion.Record{}, sentinel.ErrNotFound
	}
	if err != nil {
		return modelversion.Record{}, fmt.Errorf("query latest model version: %w", err)
	}
	return record, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM model_versions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count model versions: %w", err)
	}
	return count, nil
}

func (s *Store) All(ctx context.Context) ([]modelversion.Record, error) {
	query := `
		SELECT version, activated_at
		FROM model_versions
		ORDER BY activated_at ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query model versions: %w", err)
	}
	defer rows.Close()

	var records []modelversion.Record
	for rows.Next() {
		var record modelversion.Record
		if err := rows.Scan(&record.Version, &record.ActivatedAt); err != nil {
			return nil, fmt.Errorf("scan model version: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate model versions: %w", err)
	}
	return records, nil
}

// Replace swaps the activation history inside one transaction. Snapshot
// restore.
func (s *Store) Replace(ctx context.Context, records []modelversion.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `TRUNCATE model_versions`); err != nil {
		return fmt.Errorf("truncate model versions: %w", err)
	}
	for _, record := range records {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO model_versions (version, activated_at) VALUES ($1, $2)`,
			record.Version, record.ActivatedAt,
		); err != nil {
			return fmt.Errorf("insert model version: %w", err)
		}
	}
	return tx.Commit()
}
