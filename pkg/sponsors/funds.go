package sponsors

// AccountBook is an in-process FundsSource used by the demo binary and
// tests: a plain account table debited on withdrawal. Production
// deployments supply the host's real value-transfer primitive instead.
type AccountBook struct {
	accounts map[string]uint64
	pool     uint64
}

// NewAccountBook creates an empty account book.
func NewAccountBook() *AccountBook {
	return &AccountBook{accounts: make(map[string]uint64)}
}

// Deposit credits a principal's account.
func (b *AccountBook) Deposit(principal string, amount uint64) {
	b.accounts[principal] += amount
}

// Balance returns a principal's account balance.
func (b *AccountBook) Balance(principal string) uint64 {
	return b.accounts[principal]
}

// PoolBalance returns the value accumulated in the pool account.
func (b *AccountBook) PoolBalance() uint64 {
	return b.pool
}

// Withdraw implements FundsSource.
func (b *AccountBook) Withdraw(principal string, amount uint64) error {
	if b.accounts[principal] < amount {
		return ErrInsufficientBalance
	}
	b.accounts[principal] -= amount
	b.pool += amount
	return nil
}
