// Package actions tracks submitted environmental actions through their
// lifecycle. An action is Pending from submission until a privileged
// verifier confirms it, at which point it becomes Verified — a
// terminal state. There is no rejected state: a failed verification
// aborts the whole transaction and the action simply stays Pending.
//
// Records are keyed by (submitter, id), deliberately kept as flat
// composite-keyed maps rather than an object graph.
package actions

import (
	"errors"

	"github.com/verdant-labs/greenledger/pkg/reputation"
)

var (
	// ErrActionNotFound is returned when no action exists for the
	// given submitter and id.
	ErrActionNotFound = errors.New("actions: action not found")
	// ErrAlreadyVerified is returned on a second verification attempt.
	ErrAlreadyVerified = errors.New("actions: action already verified")
)

// Key identifies one action.
type Key struct {
	Submitter string `json:"submitter"`
	ID        uint64 `json:"id"`
}

// Action is a user-submitted claim of an environmental activity.
// Created Pending; mutated exactly once, to Verified; never deleted.
type Action struct {
	ID           uint64                `json:"id"`
	Submitter    string                `json:"submitter"`
	Type         reputation.ActionType `json:"action_type"`
	Timestamp    uint64                `json:"timestamp"`
	LocationHash string                `json:"location_hash"`
	ProofHash    string                `json:"proof_hash"`
	Verified     bool                  `json:"verified"`
	RewardAmount uint64                `json:"reward_amount"`
}

// PendingVerification is the outstanding-work record created alongside
// each action and removed on verification. Verifier is reserved for a
// future multi-verifier assignment flow and is never populated today.
type PendingVerification struct {
	ActionID    uint64 `json:"action_id"`
	Submitter   string `json:"submitter"`
	Verifier    string `json:"verifier,omitempty"`
	SubmittedAt uint64 `json:"submitted_at"`
}

// Registry stores actions and the pending-verification index.
type Registry struct {
	actions map[Key]*Action
	pending map[Key]PendingVerification
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		actions: make(map[Key]*Action),
		pending: make(map[Key]PendingVerification),
	}
}

// Record stores a freshly submitted action and enqueues its pending
// verification. The caller has already allocated the id and computed
// the reward.
func (r *Registry) Record(a Action) {
	k := Key{Submitter: a.Submitter, ID: a.ID}
	stored := a
	r.actions[k] = &stored
	r.pending[k] = PendingVerification{
		ActionID:    a.ID,
		Submitter:   a.Submitter,
		SubmittedAt: a.Timestamp,
	}
}

// Get returns a copy of the action for (submitter, id).
func (r *Registry) Get(submitter string, id uint64) (Action, error) {
	a, ok := r.actions[Key{Submitter: submitter, ID: id}]
	if !ok {
		return Action{}, ErrActionNotFound
	}
	return *a, nil
}

// Pending returns the outstanding verification entry, if any.
func (r *Registry) Pending(submitter string, id uint64) (PendingVerification, bool) {
	p, ok := r.pending[Key{Submitter: submitter, ID: id}]
	return p, ok
}

// PendingCount returns the number of outstanding verifications.
func (r *Registry) PendingCount() int {
	return len(r.pending)
}

// CheckVerifiable reports whether (submitter, id) can transition to
// Verified, without mutating anything. It backs the engine's
// check-then-apply commit: every precondition is validated here so the
// subsequent MarkVerified cannot fail.
func (r *Registry) CheckVerifiable(submitter string, id uint64) (Action, error) {
	a, ok := r.actions[Key{Submitter: submitter, ID: id}]
	if !ok {
		return Action{}, ErrActionNotFound
	}
	if a.Verified {
		return Action{}, ErrAlreadyVerified
	}
	return *a, nil
}

// MarkVerified flips the action to Verified and drops its pending
// entry. Callers must have passed CheckVerifiable within the same
// transaction.
func (r *Registry) MarkVerified(submitter string, id uint64) {
	k := Key{Submitter: submitter, ID: id}
	if a, ok := r.actions[k]; ok {
		a.Verified = true
	}
	delete(r.pending, k)
}
