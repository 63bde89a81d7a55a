package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresSnapshotter stores the engine snapshot as a single-row blob
// in Postgres, for deployments that already run one.
type PostgresSnapshotter struct {
	db *sql.DB
}

// NewPostgresSnapshotter creates the snapshotter and its schema.
func NewPostgresSnapshotter(db *sql.DB) (*PostgresSnapshotter, error) {
	s := &PostgresSnapshotter{db: db}
	query := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		state BYTEA NOT NULL,
		saved_at TIMESTAMPTZ NOT NULL
	);`
	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return nil, fmt.Errorf("store: create snapshot schema: %w", err)
	}
	return s, nil
}

func (s *PostgresSnapshotter) Save(ctx context.Context, state []byte) error {
	query := `
		INSERT INTO snapshots (id, state, saved_at) VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET state = EXCLUDED.state, saved_at = EXCLUDED.saved_at`
	_, err := s.db.ExecContext(ctx, query, state, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("store: save snapshot: %w", err)
	}
	return nil
}

func (s *PostgresSnapshotter) Load(ctx context.Context) ([]byte, error) {
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
