package engine

import (
	"fmt"
	"sort"

	"github.com/verdant-labs/greenledger/pkg/actions"
	"github.com/verdant-labs/greenledger/pkg/clock"
	"github.com/verdant-labs/greenledger/pkg/sponsors"
	"github.com/verdant-labs/greenledger/pkg/stats"
	"github.com/verdant-labs/greenledger/pkg/token"
)

// State is the full serializable engine state: one blob per committed
// transaction is what the snapshot store persists.
type State struct {
	Owner          string         `json:"owner"`
	Verifiers      []string       `json:"verifiers,omitempty"`
	Enabled        bool           `json:"enabled"`
	Clock          uint64         `json:"clock"`
	NextActionID   uint64         `json:"next_action_id"`
	TotalCompleted uint64         `json:"total_actions_completed"`
	Token          token.State    `json:"token"`
	Actions        actions.State  `json:"actions"`
	Sponsors       sponsors.State `json:"sponsors"`
	Stats          stats.State    `json:"stats"`
}

// Snapshot captures the full engine state under the transaction lock.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// snapshotLocked builds the state; callers hold e.mu.
func (e *Engine) snapshotLocked() State {
	verifiers := make([]string, 0, len(e.verifiers))
	for v := range e.verifiers {
		verifiers = append(verifiers, v)
	}
	sort.Strings(verifiers)

	return State{
		Owner:          e.owner,
		Verifiers:      verifiers,
		Enabled:        e.enabled,
		Clock:          e.clk.Now(),
		NextActionID:   e.nextActionID,
		TotalCompleted: e.totalCompleted,
		Token:          e.ledger.Snapshot(),
		Actions:        e.registry.Snapshot(),
		Sponsors:       e.pool.Snapshot(),
		Stats:          e.stats.Snapshot(),
	}
}

// Restore rebuilds an engine from a snapshot. The funds source and
// proof checker are runtime collaborators supplied fresh via cfg; a
// non-empty cfg.Owner overrides the persisted owner.
func Restore(st State, cfg Config) (*Engine, error) {
	owner := cfg.Owner
	if owner == "" {
		owner = st.Owner
	}
	if owner == "" {
		return nil, fmt.Errorf("engine: snapshot has no owner and none configured")
	}
	funds := cfg.Funds
	if funds == nil {
		funds = sponsors.NewAccountBook()
	}

	e := &Engine{
		owner:          owner,
		verifiers:      make(map[string]struct{}, len(st.Verifiers)),
		enabled:        st.Enabled,
		clk:            clock.NewCounter(st.Clock),
		proofs:         cfg.Proofs,
		nextActionID:   st.NextActionID,
		totalCompleted: st.TotalCompleted,
		ledger:         token.RestoreLedger(st.Token),
		registry:       actions.RestoreRegistry(st.Actions),
		pool:           sponsors.RestorePool(st.Sponsors, funds),
		stats:          stats.RestoreAggregator(st.Stats),
	}
	if e.nextActionID == 0 {
		e.nextActionID = 1
	}
	for _, v := range st.Verifiers {
		e.verifiers[v] = struct{}{}
	}
	return e, nil
}
