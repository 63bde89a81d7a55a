package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditAppendChains(t *testing.T) {
	l := NewAuditLog()

	e1, err := l.Append("action_submitted", "alice", map[string]any{"action_id": 1})
	require.NoError(t, err)
	e2, err := l.Append("action_verified", "owner", map[string]any{"action_id": 1})
	require.NoError(t, err)

	assert.Equal(t, chainGenesis, e1.PreviousHash)
	assert.Equal(t, e1.EntryHash, e2.PreviousHash)
	assert.Equal(t, uint64(1), e1.Sequence)
	assert.Equal(t, uint64(2), e2.Sequence)
	assert.Equal(t, e2.EntryHash, l.ChainHead())
	assert.Equal(t, 2, l.Size())
}

func TestAuditVerifyChain(t *testing.T) {
	l := NewAuditLog()
	for i := 0; i < 5; i++ {
		_, err := l.Append("tokens_transferred", "alice", map[string]any{"seq": i})
		require.NoError(t, err)
	}
	require.NoError(t, l.VerifyChain())
}

func TestAuditVerifyDetectsTampering(t *testing.T) {
	l := NewAuditLog()
	_, err := l.Append("action_submitted", "alice", map[string]any{"action_id": 1})
	require.NoError(t, err)
	_, err = l.Append("action_verified", "owner", map[string]any{"action_id": 1})
	require.NoError(t, err)

	l.entries[0].Principal = "mallory"

	require.ErrorIs(t, l.VerifyChain(), ErrChainBroken)
}

func TestAuditPayloadCanonicalization(t *testing.T) {
	// Two logs fed semantically identical payloads with different key
	// order must produce identical payload hashes.
	a := NewAuditLog()
	b := NewAuditLog()

	ea, err := a.Append("k", "p", map[string]any{"x": 1, "y": "z"})
	require.NoError(t, err)
	eb, err := b.Append("k", "p", map[string]any{"y": "z", "x": 1})
	require.NoError(t, err)

	assert.Equal(t, ea.PayloadHash, eb.PayloadHash)
}

func TestAuditGet(t *testing.T) {
	l := NewAuditLog()
	e, err := l.Append("k", "p", nil)
	require.NoError(t, err)

	got, err := l.Get(e.EntryID)
	require.NoError(t, err)
	assert.Equal(t, e, got)

	_, err = l.Get("missing")
	require.ErrorIs(t, err, ErrEntryNotFound)
}
