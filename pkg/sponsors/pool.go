// Package sponsors tracks corporate sponsor registrations and their
// contributed balances. Contributions accumulate against a notional
// reward pool; nothing in the current system draws the pool down — see
// DESIGN.md for why that gap is preserved rather than wired to minting.
package sponsors

import (
	"errors"
	"fmt"
)

var (
	// ErrSponsorNotFound is returned when the contributing caller
	// never registered or was deactivated.
	ErrSponsorNotFound = errors.New("sponsors: sponsor not registered or inactive")
	// ErrInvalidAmount is returned for zero-value contributions.
	ErrInvalidAmount = errors.New("sponsors: contribution must be positive")
	// ErrInsufficientBalance is returned when the external value
	// transfer backing a contribution fails.
	ErrInsufficientBalance = errors.New("sponsors: funds transfer failed")
	// ErrInsufficientPoolBalance is reserved for the future payout
	// path that will draw rewards from the pool. No operation emits
	// it yet.
	ErrInsufficientPoolBalance = errors.New("sponsors: insufficient pool balance")
)

// Sponsor is one registered corporate sponsor.
type Sponsor struct {
	Name             string `json:"name"`
	TotalContributed uint64 `json:"total_contributed"`
	AvailableBalance uint64 `json:"available_balance"`
	Active           bool   `json:"active"`
}

// FundsSource is the host-provided native-currency transfer primitive.
// A contribution only counts once the host has actually moved value
// from the sponsor to the pool account; that transfer can fail
// independently of this package's bookkeeping.
type FundsSource interface {
	// Withdraw moves amount from the principal to the pool. A non-nil
	// error means no value moved.
	Withdraw(principal string, amount uint64) error
}

// Pool tracks sponsors keyed by caller principal.
type Pool struct {
	sponsors map[string]Sponsor
	funds    FundsSource
}

// NewPool creates an empty pool backed by the given funds source.
func NewPool(funds FundsSource) *Pool {
	return &Pool{
		sponsors: make(map[string]Sponsor),
		funds:    funds,
	}
}

// Register creates or fully overwrites the sponsor record for the
// principal: zero balances, active. Re-registration resets the record
// by design, so no uniqueness handling is needed.
func (p *Pool) Register(principal, name string) {
	p.sponsors[principal] = Sponsor{Name: name, Active: true}
}

// Contribute records a sponsor contribution of amount. Both
// TotalContributed and AvailableBalance grow together; neither is
// ever decremented by this core.
func (p *Pool) Contribute(principal string, amount uint64) error {
	s, ok := p.sponsors[principal]
	if !ok || !s.Active {
		return ErrSponsorNotFound
	}
	if amount == 0 {
		return ErrInvalidAmount
	}
	if err := p.funds.Withdraw(principal, amount); err != nil {
		return fmt.Errorf("%w: %w", ErrInsufficientBalance, err)
	}
	s.TotalContributed += amount
	s.AvailableBalance += amount
	p.sponsors[principal] = s
	return nil
}

// Get returns the sponsor record for the principal.
func (p *Pool) Get(principal string) (Sponsor, bool) {
	s, ok := p.sponsors[principal]
	return s, ok
}

// TotalAvailable sums the available balance across all sponsors.
func (p *Pool) TotalAvailable() uint64 {
	var total uint64
	for _, s := range p.sponsors {
		total += s.AvailableBalance
	}
	return total
}
