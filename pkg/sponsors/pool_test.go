package sponsors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterIsFullOverwrite(t *testing.T) {
	book := NewAccountBook()
	book.Deposit("acme", 1000)
	p := NewPool(book)

	p.Register("acme", "Acme Corp")
	require.NoError(t, p.Contribute("acme", 400))

	// Re-registration resets balances.
	p.Register("acme", "Acme Corporation")

	s, ok := p.Get("acme")
	require.True(t, ok)
	assert.Equal(t, "Acme Corporation", s.Name)
	assert.Zero(t, s.TotalContributed)
	assert.Zero(t, s.AvailableBalance)
	assert.True(t, s.Active)
}

func TestContributeRequiresRegistration(t *testing.T) {
	p := NewPool(NewAccountBook())
	err := p.Contribute("ghost", 100)
	require.ErrorIs(t, err, ErrSponsorNotFound)
}

func TestContributeRejectsZero(t *testing.T) {
	p := NewPool(NewAccountBook())
	p.Register("acme", "Acme Corp")
	require.ErrorIs(t, p.Contribute("acme", 0), ErrInvalidAmount)
}

func TestContributeFailsWhenFundsTransferFails(t *testing.T) {
	book := NewAccountBook()
	book.Deposit("acme", 50)
	p := NewPool(book)
	p.Register("acme", "Acme Corp")

	err := p.Contribute("acme", 100)
	require.ErrorIs(t, err, ErrInsufficientBalance)

	s, _ := p.Get("acme")
	assert.Zero(t, s.TotalContributed, "failed transfer must not be recorded")
	assert.Equal(t, uint64(50), book.Balance("acme"))
	assert.Zero(t, book.PoolBalance())
}

func TestContributeAccumulates(t *testing.T) {
	book := NewAccountBook()
	book.Deposit("acme", 1000)
	p := NewPool(book)
	p.Register("acme", "Acme Corp")

	require.NoError(t, p.Contribute("acme", 300))
	require.NoError(t, p.Contribute("acme", 200))

	s, _ := p.Get("acme")
	assert.Equal(t, uint64(500), s.TotalContributed)
	assert.Equal(t, uint64(500), s.AvailableBalance)
	assert.GreaterOrEqual(t, s.TotalContributed, s.AvailableBalance)
	assert.Equal(t, uint64(500), book.PoolBalance())
	assert.Equal(t, uint64(500), book.Balance("acme"))
	assert.Equal(t, uint64(500), p.TotalAvailable())
}

func TestSnapshotRoundTrip(t *testing.T) {
	book := NewAccountBook()
	book.Deposit("acme", 1000)
	p := NewPool(book)
	p.Register("acme", "Acme Corp")
	require.NoError(t, p.Contribute("acme", 250))

	restored := RestorePool(p.Snapshot(), book)

	s, ok := restored.Get("acme")
	require.True(t, ok)
	assert.Equal(t, uint64(250), s.AvailableBalance)
	assert.True(t, s.Active)
}
