package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLiteSnapshotterRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteSnapshotter(openTestDB(t))
	require.NoError(t, err)

	_, err = s.Load(ctx)
	require.ErrorIs(t, err, ErrNoSnapshot)

	require.NoError(t, s.Save(ctx, []byte(`{"clock":1}`)))
	require.NoError(t, s.Save(ctx, []byte(`{"clock":2}`)))

	state, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"clock":2}`), state, "save replaces the previous snapshot")
}

func TestSQLiteAuditStorePersistsChain(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteAuditStore(openTestDB(t))
	require.NoError(t, err)

	l := NewAuditLog()
	for i := 0; i < 3; i++ {
		e, err := l.Append("action_submitted", "alice", map[string]any{"action_id": i + 1})
		require.NoError(t, err)
		require.NoError(t, s.Append(ctx, e))
	}

	entries, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, l.ChainHead(), entries[2].EntryHash)

	require.NoError(t, s.VerifyChain(ctx))
}

func TestSQLiteAuditStoreRejectsDuplicateSequence(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteAuditStore(openTestDB(t))
	require.NoError(t, err)

	l := NewAuditLog()
	e, err := l.Append("k", "p", nil)
	require.NoError(t, err)

	require.NoError(t, s.Append(ctx, e))
	require.Error(t, s.Append(ctx, e))
}

func TestAuditChainResumesAcrossReopen(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	// First process lifetime: two committed entries.
	s1, err := NewSQLiteAuditStore(db)
	require.NoError(t, err)
	l1 := NewAuditLog()
	for i := 0; i < 2; i++ {
		e, err := l1.Append("action_submitted", "alice", map[string]any{"action_id": i + 1})
		require.NoError(t, err)
		require.NoError(t, s1.Append(ctx, e))
	}

	// Second lifetime over the same database: the log resumes at the
	// persisted tail instead of restarting at genesis.
	s2, err := NewSQLiteAuditStore(db)
	require.NoError(t, err)
	l2, err := ResumeAuditLog(ctx, s2)
	require.NoError(t, err)

	e3, err := l2.Append("action_verified", "owner", map[string]any{"action_id": 1})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), e3.Sequence)
	assert.Equal(t, l1.ChainHead(), e3.PreviousHash)
	require.NoError(t, s2.Append(ctx, e3), "post-restart entries keep persisting")

	require.NoError(t, l2.VerifyChain())
	require.NoError(t, s2.VerifyChain(ctx))
	entries, err := s2.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestResumeAuditLogEmptySink(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteAuditStore(openTestDB(t))
	require.NoError(t, err)

	l, err := ResumeAuditLog(ctx, s)
	require.NoError(t, err)

	e, err := l.Append("k", "p", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), e.Sequence)
	assert.Equal(t, chainGenesis, e.PreviousHash)
}

func TestResumeAuditLogRefusesBrokenChain(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	s, err := NewSQLiteAuditStore(db)
	require.NoError(t, err)

	l := NewAuditLog()
	e, err := l.Append("k", "p", nil)
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, e))

	_, err = db.ExecContext(ctx, `UPDATE audit_entries SET principal = 'mallory' WHERE sequence = 1`)
	require.NoError(t, err)

	_, err = ResumeAuditLog(ctx, s)
	require.ErrorIs(t, err, ErrChainBroken)
}

func TestSQLiteAuditStoreDetectsTampering(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	s, err := NewSQLiteAuditStore(db)
	require.NoError(t, err)

	l := NewAuditLog()
	for i := 0; i < 2; i++ {
		e, err := l.Append("k", "p", map[string]any{"i": i})
		require.NoError(t, err)
		require.NoError(t, s.Append(ctx, e))
	}

	_, err = db.ExecContext(ctx, `UPDATE audit_entries SET principal = 'mallory' WHERE sequence = 1`)
	require.NoError(t, err)

	require.ErrorIs(t, s.VerifyChain(ctx), ErrChainBroken)
}
