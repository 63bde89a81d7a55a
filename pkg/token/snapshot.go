package token

// State is the serializable form of the ledger, used by the snapshot
// store to persist and restore engine state.
type State struct {
	Meta        Metadata                     `json:"meta"`
	Balances    map[string]uint64            `json:"balances"`
	Allowances  map[string]map[string]uint64 `json:"allowances,omitempty"`
	TotalSupply uint64                       `json:"total_supply"`
	Minted      uint64                       `json:"minted"`
	Burned      uint64                       `json:"burned"`
}

// Snapshot returns a deep copy of the ledger state.
func (l *Ledger) Snapshot() State {
	st := State{
		Meta:        l.meta,
		Balances:    make(map[string]uint64, len(l.balances)),
		Allowances:  make(map[string]map[string]uint64, len(l.allowances)),
		TotalSupply: l.totalSupply,
		Minted:      l.minted,
		Burned:      l.burned,
	}
	for p, b := range l.balances {
		st.Balances[p] = b
	}
	for owner, m := range l.allowances {
		cp := make(map[string]uint64, len(m))
		for spender, amt := range m {
			cp[spender] = amt
		}
		st.Allowances[owner] = cp
	}
	return st
}

// RestoreLedger rebuilds a ledger from a snapshot.
func RestoreLedger(st State) *Ledger {
	l := NewLedger(st.Meta)
	l.totalSupply = st.TotalSupply
	l.minted = st.Minted
	l.burned = st.Burned
	for p, b := range st.Balances {
		l.balances[p] = b
	}
	for owner, m := range st.Allowances {
		for spender, amt := range m {
			l.Approve(owner, spender, amt)
		}
	}
	return l
}
