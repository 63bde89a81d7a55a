package engine

import (
	"fmt"

	"github.com/verdant-labs/greenledger/pkg/actions"
	"github.com/verdant-labs/greenledger/pkg/reputation"
)

// SubmitAction records a new environmental action claim for the
// caller. The reward amount is fixed here, at submission time, and
// never recomputed. Returns the new action ID.
func (e *Engine) SubmitAction(caller string, t reputation.ActionType, locationHash, proofHash string) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.enabled || !reputation.Known(t) {
		return 0, ErrInvalidAction
	}

	reward, _ := reputation.RewardAndBoost(t)
	id := e.nextActionID
	ts := e.clk.Advance()

	e.registry.Record(actions.Action{
		ID:           id,
		Submitter:    caller,
		Type:         t,
		Timestamp:    ts,
		LocationHash: locationHash,
		ProofHash:    proofHash,
		RewardAmount: reward,
	})
	e.nextActionID++

	e.emit(Event{Kind: EventActionSubmitted, Principal: caller, Payload: map[string]any{
		"action_id":   id,
		"action_type": string(t),
		"reward":      reward,
		"timestamp":   ts,
	}})
	return id, nil
}

// VerifyAction confirms a pending action: the action flips to
// Verified, the reward is minted to the submitter, the submitter's
// stats are updated, the completed counter advances, and the pending
// entry is removed. The five mutations commit together or not at all:
// every precondition (authority, existence, exactly-once, external
// proof decision) is checked before the first write, and none of the
// writes can fail.
func (e *Engine) VerifyAction(caller, user string, actionID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.isVerifier(caller) {
		return ErrOwnerOnly
	}
	a, err := e.registry.CheckVerifiable(user, actionID)
	if err != nil {
		return err
	}
	if e.proofs != nil {
		if err := e.proofs.Confirm(a); err != nil {
			return fmt.Errorf("%w: %w", ErrVerificationFailed, err)
		}
	}

	_, boost := reputation.RewardAndBoost(a.Type)
	e.registry.MarkVerified(user, actionID)
	e.ledger.Mint(user, a.RewardAmount)
	e.stats.RecordVerified(user, a.Type, a.RewardAmount, boost)
	e.totalCompleted++

	e.emit(Event{Kind: EventActionVerified, Principal: caller, Payload: map[string]any{
		"action_id": actionID,
		"user":      user,
		"reward":    a.RewardAmount,
		"boost":     boost,
	}})
	return nil
}

// Transfer moves tokens between principals. The caller must be the
// debited principal or an approved delegate.
func (e *Engine) Transfer(caller, from, to string, amount uint64, memo string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ledger.Transfer(caller, from, to, amount); err != nil {
		return err
	}
	payload := map[string]any{"from": from, "to": to, "amount": amount}
	if memo != "" {
		payload["memo"] = memo
	}
	e.emit(Event{Kind: EventTokensTransferred, Principal: caller, Payload: payload})
	return nil
}

// TradeTokens is the thin trade alias: a transfer out of the caller's
// own balance.
func (e *Engine) TradeTokens(caller, to string, amount uint64) error {
	return e.Transfer(caller, caller, to, amount, "")
}

// Approve authorizes a delegate to transfer up to amount out of the
// caller's balance. Zero revokes.
func (e *Engine) Approve(caller, spender string, amount uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.ledger.Approve(caller, spender, amount)
	e.emit(Event{Kind: EventDelegateApproved, Principal: caller, Payload: map[string]any{
		"spender": spender,
		"amount":  amount,
	}})
	return nil
}

// RegisterSponsor creates (or fully overwrites) the caller's sponsor
// record.
func (e *Engine) RegisterSponsor(caller, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.pool.Register(caller, name)
	e.emit(Event{Kind: EventSponsorRegistered, Principal: caller, Payload: map[string]any{"name": name}})
	return nil
}

// SponsorContribute records a contribution from a registered active
// sponsor, backed by the host's value transfer.
func (e *Engine) SponsorContribute(caller string, amount uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.pool.Contribute(caller, amount); err != nil {
		return err
	}
	e.emit(Event{Kind: EventSponsorContributed, Principal: caller, Payload: map[string]any{"amount": amount}})
	return nil
}
