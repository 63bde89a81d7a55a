// Package engine is the transaction core of the reward ledger. It owns
// the token ledger, action registry, sponsor pool, and statistics
// aggregator, plus the global counters, and exposes every public
// operation of the system.
//
// Every entry point runs under a single mutex: operations are totally
// ordered, observe a consistent snapshot, and commit atomically. All
// preconditions are checked before any state is touched, so a returned
// error means nothing was written. Failures are data — this package
// never logs.
package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/verdant-labs/greenledger/pkg/actions"
	"github.com/verdant-labs/greenledger/pkg/clock"
	"github.com/verdant-labs/greenledger/pkg/sponsors"
	"github.com/verdant-labs/greenledger/pkg/stats"
	"github.com/verdant-labs/greenledger/pkg/token"
)

var (
	// ErrOwnerOnly is returned when a caller without verification or
	// admin authority invokes a privileged operation.
	ErrOwnerOnly = errors.New("engine: caller is not authorized for this operation")
	// ErrInvalidAction is returned when submissions are disabled or
	// the action type has no configured reward.
	ErrInvalidAction = errors.New("engine: invalid action submission")
	// ErrVerificationFailed is returned when the external proof
	// checker rejects an action during verification.
	ErrVerificationFailed = errors.New("engine: proof verification failed")
)

// ProofChecker is the external verifier decision the core trusts. When
// configured, VerifyAction consults it before committing; a non-nil
// error aborts the whole transition and the action stays pending.
type ProofChecker interface {
	Confirm(a actions.Action) error
}

// Config assembles an engine.
type Config struct {
	// Owner is the contract-owner principal: sole admin authority and
	// the root of the verifier set.
	Owner string
	// Token is the static token metadata. Zero value means
	// token.DefaultMetadata.
	Token token.Metadata
	// Clock orders submissions. Nil means a fresh logical counter.
	Clock clock.Logical
	// Funds is the host's native-currency transfer primitive backing
	// sponsor contributions. Nil means an empty in-process account
	// book (every contribution fails until funded).
	Funds sponsors.FundsSource
	// Proofs is the optional external proof checker.
	Proofs ProofChecker
}

// Engine is the serialized transaction core.
type Engine struct {
	mu sync.Mutex

	owner     string
	verifiers map[string]struct{}
	enabled   bool
	clk       clock.Logical
	proofs    ProofChecker

	nextActionID   uint64
	totalCompleted uint64

	ledger   *token.Ledger
	registry *actions.Registry
	pool     *sponsors.Pool
	stats    *stats.Aggregator

	hooks []Hook
}

// New creates an enabled engine with an empty ledger.
func New(cfg Config) (*Engine, error) {
	if cfg.Owner == "" {
		return nil, fmt.Errorf("engine: owner principal is required")
	}
	meta := cfg.Token
	if meta == (token.Metadata{}) {
		meta = token.DefaultMetadata()
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.NewCounter(0)
	}
	funds := cfg.Funds
	if funds == nil {
		funds = sponsors.NewAccountBook()
	}
	return &Engine{
		owner:        cfg.Owner,
		verifiers:    make(map[string]struct{}),
		enabled:      true,
		clk:          clk,
		proofs:       cfg.Proofs,
		nextActionID: 1,
		ledger:       token.NewLedger(meta),
		registry:     actions.NewRegistry(),
		pool:         sponsors.NewPool(funds),
		stats:        stats.NewAggregator(),
	}, nil
}

// Owner returns the contract-owner principal.
func (e *Engine) Owner() string {
	return e.owner
}

// isVerifier reports whether the caller may verify actions. The owner
// always may; additional verifiers are granted by AddVerifier.
func (e *Engine) isVerifier(caller string) bool {
	if caller == e.owner {
		return true
	}
	_, ok := e.verifiers[caller]
	return ok
}

// AddVerifier grants verification authority to a principal. Owner only.
func (e *Engine) AddVerifier(caller, principal string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if caller != e.owner {
		return ErrOwnerOnly
	}
	e.verifiers[principal] = struct{}{}
	e.emit(Event{Kind: EventVerifierAdded, Principal: caller, Payload: map[string]any{"verifier": principal}})
	return nil
}

// RemoveVerifier revokes verification authority. Owner only; the owner
// itself cannot be revoked.
func (e *Engine) RemoveVerifier(caller, principal string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if caller != e.owner {
		return ErrOwnerOnly
	}
	delete(e.verifiers, principal)
	e.emit(Event{Kind: EventVerifierRemoved, Principal: caller, Payload: map[string]any{"verifier": principal}})
	return nil
}

// ToggleContract enables or disables action submission. Owner only.
// Existing actions stay queryable either way.
func (e *Engine) ToggleContract(caller string, enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if caller != e.owner {
		return ErrOwnerOnly
	}
	e.enabled = enabled
	e.emit(Event{Kind: EventContractToggled, Principal: caller, Payload: map[string]any{"enabled": enabled}})
	return nil
}

// UpdateTokenURI replaces the token metadata URI. Owner only.
func (e *Engine) UpdateTokenURI(caller, uri string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if caller != e.owner {
		return ErrOwnerOnly
	}
	e.ledger.SetTokenURI(uri)
	e.emit(Event{Kind: EventTokenURIUpdated, Principal: caller, Payload: map[string]any{"uri": uri}})
	return nil
}
