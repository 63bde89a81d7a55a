// Package stats maintains per-user derived counters. Records are
// updated only by the verification transition and every field is
// monotonically non-decreasing.
package stats

import "github.com/verdant-labs/greenledger/pkg/reputation"

// UserStats is one user's aggregate record. A user who never had an
// action verified simply has the zero value.
type UserStats struct {
	TotalActions      uint64                           `json:"total_actions"`
	ByType            map[reputation.ActionType]uint64 `json:"by_type,omitempty"`
	TotalTokensEarned uint64                           `json:"total_tokens_earned"`
	ReputationScore   uint64                           `json:"reputation_score"`
}

// Aggregator stores per-user stats keyed by principal.
type Aggregator struct {
	users map[string]UserStats
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{users: make(map[string]UserStats)}
}

// RecordVerified applies one verified action: the matching per-type
// counter, total actions, tokens earned, and reputation score all move
// in a single write.
func (a *Aggregator) RecordVerified(user string, t reputation.ActionType, reward, boost uint64) {
	s := a.users[user]
	if s.ByType == nil {
		s.ByType = make(map[reputation.ActionType]uint64)
	}
	s.ByType[t]++
	s.TotalActions++
	s.TotalTokensEarned += reward
	s.ReputationScore += boost
	a.users[user] = s
}

// Get returns a copy of the user's stats, zero-valued if absent.
func (a *Aggregator) Get(user string) UserStats {
	s, ok := a.users[user]
	if !ok {
		return UserStats{}
	}
	cp := s
	cp.ByType = make(map[reputation.ActionType]uint64, len(s.ByType))
	for t, n := range s.ByType {
		cp.ByType[t] = n
	}
	return cp
}

// State is the serializable form of the aggregator.
type State struct {
	Users map[string]UserStats `json:"users"`
}

// Snapshot returns a deep copy of all user records.
func (a *Aggregator) Snapshot() State {
	st := State{Users: make(map[string]UserStats, len(a.users))}
	for user := range a.users {
		st.Users[user] = a.Get(user)
	}
	return st
}

// RestoreAggregator rebuilds an aggregator from a snapshot.
func RestoreAggregator(st State) *Aggregator {
	a := NewAggregator()
	for user, s := range st.Users {
		a.users[user] = s
	}
	return a
}
