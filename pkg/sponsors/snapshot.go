package sponsors

// State is the serializable form of the pool. The funds source is the
// host's concern and is not part of the snapshot.
type State struct {
	Sponsors map[string]Sponsor `json:"sponsors"`
}

// Snapshot returns a deep copy of the pool's sponsor records.
func (p *Pool) Snapshot() State {
	st := State{Sponsors: make(map[string]Sponsor, len(p.sponsors))}
	for principal, s := range p.sponsors {
		st.Sponsors[principal] = s
	}
	return st
}

// RestorePool rebuilds a pool from a snapshot, reattaching the funds
// source.
func RestorePool(st State, funds FundsSource) *Pool {
	p := NewPool(funds)
	for principal, s := range st.Sponsors {
		p.sponsors[principal] = s
	}
	return p
}
