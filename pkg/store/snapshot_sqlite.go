package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteSnapshotter stores the engine snapshot as a single-row blob in
// SQLite.
type SQLiteSnapshotter struct {
	db *sql.DB
}

// NewSQLiteSnapshotter creates the snapshotter and its schema.
func NewSQLiteSnapshotter(db *sql.DB) (*SQLiteSnapshotter, error) {
	s := &SQLiteSnapshotter{db: db}
	query := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		state BLOB NOT NULL,
		saved_at TEXT NOT NULL
	);`
	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return nil, fmt.Errorf("store: create snapshot schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteSnapshotter) Save(ctx context.Context, state []byte) error {
	query := `
		INSERT INTO snapshots (id, state, saved_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET state = excluded.state, saved_at = excluded.saved_at`
	_, err := s.db.ExecContext(ctx, query, state, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("store: save snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteSnapshotter) Load(ctx context.Context) ([]byte, error) {
	var state []byte
	err := s.db.QueryRowContext(ctx, `SELECT state FROM snapshots WHERE id = 1`).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("store: load snapshot: %w", err)
	}
	return state, nil
}
