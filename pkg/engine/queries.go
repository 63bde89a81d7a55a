package engine

import (
	"github.com/verdant-labs/greenledger/pkg/actions"
	"github.com/verdant-labs/greenledger/pkg/sponsors"
	"github.com/verdant-labs/greenledger/pkg/stats"
)

// Read projections. Pure reads with no side effects; they take the
// transaction lock only to observe a consistent snapshot.

// GetUserAction returns the action record for (user, actionID).
func (e *Engine) GetUserAction(user string, actionID uint64) (actions.Action, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Get(user, actionID)
}

// GetUserStats returns the user's aggregate stats, zero-valued if the
// user never had an action verified.
func (e *Engine) GetUserStats(user string) stats.UserStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats.Get(user)
}

// GetSponsorInfo returns the sponsor record for a principal.
func (e *Engine) GetSponsorInfo(principal string) (sponsors.Sponsor, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pool.Get(principal)
}

// GetPendingVerification returns the outstanding verification entry
// for (user, actionID), if any.
func (e *Engine) GetPendingVerification(user string, actionID uint64) (actions.PendingVerification, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Pending(user, actionID)
}

// GetTotalActions returns the count of verified actions.
func (e *Engine) GetTotalActions() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalCompleted
}

// GetContractStatus reports whether submissions are enabled.
func (e *Engine) GetContractStatus() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled
}

// GetBalance returns a principal's token balance.
func (e *Engine) GetBalance(principal string) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Balance(principal)
}

// GetTotalSupply returns the circulating token supply.
func (e *Engine) GetTotalSupply() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.TotalSupply()
}

// GetAllowance returns the delegate allowance spender holds on owner.
func (e *Engine) GetAllowance(owner, spender string) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Allowance(owner, spender)
}

// Token metadata reads.

func (e *Engine) GetName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Name()
}

func (e *Engine) GetSymbol() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Symbol()
}

func (e *Engine) GetDecimals() uint8 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Decimals()
}

func (e *Engine) GetTokenURI() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.TokenURI()
}

// Verifiers lists principals with verification authority beyond the
// owner.
func (e *Engine) Verifiers() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.verifiers))
	for v := range e.verifiers {
		out = append(out, v)
	}
	return out
}
