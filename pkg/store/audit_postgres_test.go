package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestPostgresAuditStoreAppend(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS audit_entries").
		WillReturnResult(sqlmock.NewResult(0, 0))

	l := NewAuditLog()
	e, err := l.Append("action_submitted", "alice", map[string]any{"action_id": 1})
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO audit_entries").
		WithArgs(e.Sequence, e.EntryID, e.Timestamp.UTC().Format(time.RFC3339Nano),
			e.Kind, e.Principal, string(e.Payload), e.PayloadHash, e.PreviousHash, e.EntryHash).
		WillReturnResult(sqlmock.NewResult(1, 1))

	s, err := NewPostgresAuditStore(db)
	require.NoError(t, err)
	require.NoError(t, s.Append(context.Background(), e))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAuditStoreVerifyChain(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS audit_entries").
		WillReturnResult(sqlmock.NewResult(0, 0))

	// Build a real two-entry chain and serve it back from the mock.
	l := NewAuditLog()
	e1, err := l.Append("action_submitted", "alice", map[string]any{"action_id": 1})
	require.NoError(t, err)
	e2, err := l.Append("action_verified", "owner", map[string]any{"action_id": 1})
	require.NoError(t, err)

	cols := []string{"sequence", "entry_id", "timestamp", "kind", "principal", "payload", "payload_hash", "previous_hash", "entry_hash"}
	rows := sqlmock.NewRows(cols)
	for _, e := range []*AuditEntry{e1, e2} {
		rows.AddRow(e.Sequence, e.EntryID, e.Timestamp.UTC().Format(time.RFC3339Nano),
			e.Kind, e.Principal, string(e.Payload), e.PayloadHash, e.PreviousHash, e.EntryHash)
	}
	mock.ExpectQuery("SELECT (.+) FROM audit_entries").WillReturnRows(rows)

	s, err := NewPostgresAuditStore(db)
	require.NoError(t, err)
	require.NoError(t, s.VerifyChain(context.Background()))

	require.NoError(t, mock.ExpectationsWereMet())
}
