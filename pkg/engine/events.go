package engine

// EventKind labels a committed state transition.
type EventKind string

const (
	EventActionSubmitted    EventKind = "action_submitted"
	EventActionVerified     EventKind = "action_verified"
	EventTokensTransferred  EventKind = "tokens_transferred"
	EventDelegateApproved   EventKind = "delegate_approved"
	EventSponsorRegistered  EventKind = "sponsor_registered"
	EventSponsorContributed EventKind = "sponsor_contributed"
	EventContractToggled    EventKind = "contract_toggled"
	EventTokenURIUpdated    EventKind = "token_uri_updated"
	EventVerifierAdded      EventKind = "verifier_added"
	EventVerifierRemoved    EventKind = "verifier_removed"
)

// Event describes one committed transition. Events are emitted only
// after every mutation of the transaction has been applied, while the
// transaction lock is still held, so observers see them in commit
// order.
type Event struct {
	Kind      EventKind      `json:"kind"`
	Principal string         `json:"principal"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// Hook observes committed events together with the full post-commit
// state. Hooks run synchronously inside the transaction and must not
// call back into the engine.
type Hook func(Event, State)

// OnCommit registers a hook for committed transitions. The audit chain
// and snapshot persistence hang off this.
func (e *Engine) OnCommit(h Hook) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hooks = append(e.hooks, h)
}

func (e *Engine) emit(ev Event) {
	if len(e.hooks) == 0 {
		return
	}
	st := e.snapshotLocked()
	for _, h := range e.hooks {
		h(ev, st)
	}
}
