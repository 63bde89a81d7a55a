package token

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintGrowsSupply(t *testing.T) {
	l := NewLedger(DefaultMetadata())

	l.Mint("alice", 100)
	l.Mint("bob", 50)

	assert.Equal(t, uint64(100), l.Balance("alice"))
	assert.Equal(t, uint64(50), l.Balance("bob"))
	assert.Equal(t, uint64(150), l.TotalSupply())
	assert.Equal(t, uint64(150), l.Minted())
}

func TestTransferIsSupplyNeutral(t *testing.T) {
	l := NewLedger(DefaultMetadata())
	l.Mint("alice", 100)

	require.NoError(t, l.Transfer("alice", "alice", "bob", 40))

	assert.Equal(t, uint64(60), l.Balance("alice"))
	assert.Equal(t, uint64(40), l.Balance("bob"))
	assert.Equal(t, uint64(100), l.TotalSupply())
}

func TestTransferRejectsNonOwner(t *testing.T) {
	l := NewLedger(DefaultMetadata())
	l.Mint("alice", 100)

	err := l.Transfer("mallory", "alice", "mallory", 10)
	require.ErrorIs(t, err, ErrNotTokenOwner)
	assert.Equal(t, uint64(100), l.Balance("alice"))
	assert.Equal(t, uint64(0), l.Balance("mallory"))
}

func TestTransferInsufficientBalance(t *testing.T) {
	l := NewLedger(DefaultMetadata())
	l.Mint("alice", 10)

	err := l.Transfer("alice", "alice", "bob", 11)
	require.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, uint64(10), l.Balance("alice"))
}

func TestTransferZeroAmount(t *testing.T) {
	l := NewLedger(DefaultMetadata())
	l.Mint("alice", 10)

	err := l.Transfer("alice", "alice", "bob", 0)
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestDelegateTransferConsumesAllowance(t *testing.T) {
	l := NewLedger(DefaultMetadata())
	l.Mint("alice", 100)
	l.Approve("alice", "broker", 30)

	require.NoError(t, l.Transfer("broker", "alice", "carol", 20))
	assert.Equal(t, uint64(10), l.Allowance("alice", "broker"))
	assert.Equal(t, uint64(20), l.Balance("carol"))

	// Remaining allowance no longer covers another 20.
	err := l.Transfer("broker", "alice", "carol", 20)
	require.ErrorIs(t, err, ErrNotTokenOwner)
}

func TestApproveZeroRevokes(t *testing.T) {
	l := NewLedger(DefaultMetadata())
	l.Mint("alice", 100)
	l.Approve("alice", "broker", 30)
	l.Approve("alice", "broker", 0)

	err := l.Transfer("broker", "alice", "carol", 1)
	require.True(t, errors.Is(err, ErrNotTokenOwner))
}

func TestBurn(t *testing.T) {
	l := NewLedger(DefaultMetadata())
	l.Mint("alice", 100)

	require.NoError(t, l.Burn("alice", 30))
	assert.Equal(t, uint64(70), l.Balance("alice"))
	assert.Equal(t, uint64(70), l.TotalSupply())

	require.ErrorIs(t, l.Burn("alice", 71), ErrInsufficientBalance)
}

func TestSnapshotRoundTrip(t *testing.T) {
	l := NewLedger(DefaultMetadata())
	l.Mint("alice", 100)
	l.Approve("alice", "broker", 25)
	l.SetTokenURI("ipfs://eco-token")
	require.NoError(t, l.Transfer("alice", "alice", "bob", 10))

	restored := RestoreLedger(l.Snapshot())

	assert.Equal(t, l.Balance("alice"), restored.Balance("alice"))
	assert.Equal(t, l.Balance("bob"), restored.Balance("bob"))
	assert.Equal(t, l.Allowance("alice", "broker"), restored.Allowance("alice", "broker"))
	assert.Equal(t, l.TotalSupply(), restored.TotalSupply())
	assert.Equal(t, l.TokenURI(), restored.TokenURI())
}
