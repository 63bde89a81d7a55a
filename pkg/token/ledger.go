// Package token implements the fungible ECO token ledger: per-principal
// balances, a global supply, and mint/transfer primitives. Minting is
// reserved for the verification flow; external callers only reach
// Transfer and the read surface.
//
// The ledger carries no lock of its own. Every mutation happens inside
// the engine's serialized transaction, and every mutating method checks
// all preconditions before touching state, so a returned error implies
// nothing was written.
package token

import "errors"

var (
	// ErrNotTokenOwner is returned when the acting caller is neither
	// the debited principal nor an approved delegate.
	ErrNotTokenOwner = errors.New("token: caller does not own the debited balance")
	// ErrInsufficientBalance is returned when the debited principal
	// cannot cover the transfer amount.
	ErrInsufficientBalance = errors.New("token: insufficient balance")
	// ErrInvalidAmount is returned for zero-amount transfers.
	ErrInvalidAmount = errors.New("token: amount must be positive")
)

// Metadata is the static token configuration. Only the URI is mutable,
// and only through the owner-gated engine operation.
type Metadata struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
	URI      string `json:"uri,omitempty"`
}

// DefaultMetadata is the ECO token configuration.
func DefaultMetadata() Metadata {
	return Metadata{Name: "EcoToken", Symbol: "ECO", Decimals: 6}
}

// Ledger is the fungible balance store.
type Ledger struct {
	meta        Metadata
	balances    map[string]uint64
	allowances  map[string]map[string]uint64
	totalSupply uint64
	minted      uint64
	burned      uint64
}

// NewLedger creates an empty ledger with the given metadata.
func NewLedger(meta Metadata) *Ledger {
	return &Ledger{
		meta:       meta,
		balances:   make(map[string]uint64),
		allowances: make(map[string]map[string]uint64),
	}
}

// Mint credits recipient and grows the total supply. It is the
// privileged path used by the verification flow and must never be
// exposed to external callers directly.
func (l *Ledger) Mint(recipient string, amount uint64) {
	l.balances[recipient] += amount
	l.totalSupply += amount
	l.minted += amount
}

// Burn debits the principal and shrinks the total supply. No public
// operation reaches it today; it exists so supply accounting stays
// symmetric for future slashing or redemption flows.
func (l *Ledger) Burn(principal string, amount uint64) error {
	if l.balances[principal] < amount {
		return ErrInsufficientBalance
	}
	l.balances[principal] -= amount
	l.totalSupply -= amount
	l.burned += amount
	return nil
}

// Transfer moves amount from one principal to another. The caller must
// be the debited principal or hold a sufficient delegate allowance;
// delegate transfers consume the allowance. Transfers are
// supply-neutral.
func (l *Ledger) Transfer(caller, from, to string, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	viaAllowance := false
	if caller != from {
		if l.Allowance(from, caller) < amount {
			return ErrNotTokenOwner
		}
		viaAllowance = true
	}
	if l.balances[from] < amount {
		return ErrInsufficientBalance
	}
	if viaAllowance {
		l.allowances[from][caller] -= amount
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}

// Approve sets the delegate allowance spender may transfer out of
// owner's balance. Setting zero revokes the delegation.
func (l *Ledger) Approve(owner, spender string, amount uint64) {
	if amount == 0 {
		if m, ok := l.allowances[owner]; ok {
			delete(m, spender)
			if len(m) == 0 {
				delete(l.allowances, owner)
			}
		}
		return
	}
	m, ok := l.allowances[owner]
	if !ok {
		m = make(map[string]uint64)
		l.allowances[owner] = m
	}
	m[spender] = amount
}

// Allowance returns the remaining delegate allowance.
func (l *Ledger) Allowance(owner, spender string) uint64 {
	return l.allowances[owner][spender]
}

// Balance returns the principal's balance, zero if absent.
func (l *Ledger) Balance(principal string) uint64 {
	return l.balances[principal]
}

// TotalSupply returns the current circulating supply.
func (l *Ledger) TotalSupply() uint64 {
	return l.totalSupply
}

// Minted returns the cumulative amount ever minted.
func (l *Ledger) Minted() uint64 {
	return l.minted
}

func (l *Ledger) Name() string     { return l.meta.Name }
func (l *Ledger) Symbol() string   { return l.meta.Symbol }
func (l *Ledger) Decimals() uint8  { return l.meta.Decimals }
func (l *Ledger) TokenURI() string { return l.meta.URI }

// SetTokenURI replaces the metadata URI. Authorization is the engine's
// concern; the ledger just stores it.
func (l *Ledger) SetTokenURI(uri string) {
	l.meta.URI = uri
}
