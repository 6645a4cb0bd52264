// Package sqlstore persists time series samples and evaluation runs in
// SQLite.
package sqlstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sandrolain/goexpr/pkg/timeseries"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned by Load for a series without samples.
var ErrNotFound = errors.New("series not found")

// Store is a SQLite sample store.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and applies the schema.
// Opening an existing database is safe.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append stores samples for the named series in one transaction. A sample
// at an existing timestamp overwrites the stored value.
func (s *Store) Append(ctx context.Context, name string, samples ...timeseries.Sample) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append %s: %w", name, err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO samples (series, ts, value) VALUES (?, ?, ?)
		ON CONFLICT(series, ts) DO UPDATE SET value = excluded.value
	`)
	if err != nil {
		return fmt.Errorf("append %s: %w", name, err)
	}
	defer stmt.Close()

	for _, smp := range samples {
		if _, err = stmt.ExecContext(ctx, name, smp.Time.UnixNano(), smp.Value); err != nil {
			return fmt.Errorf("append %s: %w", name, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("append %s: %w", name, err)
	}
	return nil
}

// Load reads the named series. Timestamps come back in UTC.
func (s *Store) Load(ctx context.Context, name string) (*timeseries.Series, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ts, value FROM samples WHERE series = ? ORDER BY ts`, name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	defer rows.Close()

	var samples []timeseries.Sample
	for rows.Next() {
		var (
			ts    int64
			value float64
		)
		if err := rows.Scan(&ts, &value); err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
		samples = append(samples, timeseries.Sample{Time: time.Unix(0, ts).UTC(), Value: value})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("load %s: %w", name, ErrNotFound)
	}
	return timeseries.New(name, samples...), nil
}

// Names returns the stored series names, sorted.
func (s *Store) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT series FROM samples ORDER BY series`)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("list series: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// LoadAll reads every stored series into a set.
func (s *Store) LoadAll(ctx context.Context) (*timeseries.Set, error) {
	names, err := s.Names(ctx)
	if err != nil {
		return nil, err
	}
	set := timeseries.NewSet()
	for _, name := range names {
		ser, err := s.Load(ctx, name)
		if err != nil {
			return nil, err
		}
		set.Add(ser)
	}
	return set, nil
}
