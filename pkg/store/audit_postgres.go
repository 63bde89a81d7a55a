package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresAuditStore persists audit entries to Postgres, mirroring
// SQLiteAuditStore for deployments on the postgres driver.
type PostgresAuditStore struct {
	db *sql.DB
}

// NewPostgresAuditStore creates the store and its schema.
func NewPostgresAuditStore(db *sql.DB) (*PostgresAuditStore, error) {
	s := &PostgresAuditStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresAuditStore) migrate() error {
	// Timestamps are stored as RFC 3339 text, not TIMESTAMPTZ: the
	// entry hash covers the timestamp, and a round trip through
	// microsecond-precision TIMESTAMPTZ would change the bytes.
	query := `
	CREATE TABLE IF NOT EXISTS audit_entries (
		sequence BIGINT PRIMARY KEY,
		entry_id TEXT NOT NULL UNIQUE,
		timestamp TEXT NOT NULL,
		kind TEXT NOT NULL,
		principal TEXT NOT NULL,
		payload TEXT,
		payload_hash TEXT NOT NULL,
		previous_hash TEXT NOT NULL,
		entry_hash TEXT NOT NULL
	);`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

// Append persists one entry. Entries must arrive in chain order; the
// sequence primary key rejects duplicates.
func (s *PostgresAuditStore) Append(ctx context.Context, e *AuditEntry) error {
	query := `INSERT INTO audit_entries (
		sequence, entry_id, timestamp, kind, principal, payload, payload_hash, previous_hash, entry_hash
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := s.db.ExecContext(ctx, query,
		e.Sequence, e.EntryID, e.Timestamp.UTC().Format(time.RFC3339Nano),
		e.Kind, e.Principal, string(e.Payload), e.PayloadHash, e.PreviousHash, e.EntryHash,
	)
	if err != nil {
		return fmt.Errorf("store: insert audit entry: %w", err)
	}
	return nil
}

// List returns all persisted entries in chain order.
func (s *PostgresAuditStore) List(ctx context.Context) ([]*AuditEntry, error) {
	query := `
		SELECT sequence, entry_id, timestamp, kind, principal, payload, payload_hash, previous_hash, entry_hash
		FROM audit_entries
		ORDER BY sequence ASC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []*AuditEntry
	for rows.Next() {
		var (
			e       AuditEntry
			ts      string
			payload sql.NullString
		)
		if err := rows.Scan(&e.Sequence, &e.EntryID, &ts, &e.Kind, &e.Principal, &payload, &e.PayloadHash, &e.PreviousHash, &e.EntryHash); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("store: parse audit timestamp: %w", err)
		}
		e.Timestamp = parsed
		if payload.Valid && payload.String != "" {
			e.Payload = json.RawMessage(payload.String)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// VerifyChain loads every entry and checks the hash chain.
func (s *PostgresAuditStore) VerifyChain(ctx context.Context) error {
	entries, err := s.List(ctx)
	if err != nil {
		return err
	}
	return verifyEntries(entries)
}
