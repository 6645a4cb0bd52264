package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run is a recorded evaluation.
type Run struct {
	ID         uuid.UUID
	Expression string
	Value      string
	Success    bool
	Error      string
	At         time.Time
}

// RecordRun stores run. A zero ID is replaced by a new UUIDv7 and a zero
// time by the current time; the stored run is returned.
func (s *Store) RecordRun(ctx context.Context, run Run) (Run, error) {
	if run.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return run, fmt.Errorf("record run: %w", err)
		}
		run.ID = id
	}
	if run.At.IsZero() {
		run.At = time.Now()
	}
	run.At = run.At.UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, expression, value, success, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, run.ID.String(), run.Expression, run.Value, run.Success, run.Error, run.At.UnixNano())
	if err != nil {
		return run, fmt.Errorf("record run: %w", err)
	}
	return run, nil
}

// Runs returns the most recent runs, newest first. A limit of zero or less
// returns every run.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, expression, value, success, error, created_at
		FROM runs ORDER BY created_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run Run
			id  string
			at  int64
		)
		if err := rows.Scan(&id, &run.Expression, &run.Value, &run.Success, &run.Error, &at); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		if run.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		run.At = time.Unix(0, at).UTC()
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
