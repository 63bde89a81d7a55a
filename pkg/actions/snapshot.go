package actions

// State is the serializable form of the registry. Map keys flatten to
// a slice because JSON objects cannot key on composite structs.
type State struct {
	Actions []Action              `json:"actions"`
	Pending []PendingVerification `json:"pending"`
}

// Snapshot returns a deep copy of the registry state.
func (r *Registry) Snapshot() State {
	st := State{
		Actions: make([]Action, 0, len(r.actions)),
		Pending: make([]PendingVerification, 0, len(r.pending)),
	}
	for _, a := range r.actions {
		st.Actions = append(st.Actions, *a)
	}
	for _, p := range r.pending {
		st.Pending = append(st.Pending, p)
	}
	return st
}

// RestoreRegistry rebuilds a registry from a snapshot.
func RestoreRegistry(st State) *Registry {
	r := NewRegistry()
	for _, a := range st.Actions {
		stored := a
		r.actions[Key{Submitter: a.Submitter, ID: a.ID}] = &stored
	}
	for _, p := range st.Pending {
		r.pending[Key{Submitter: p.Submitter, ID: p.ActionID}] = p
	}
	return r
}
