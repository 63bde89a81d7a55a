// Package reputation maps environmental action types to token rewards
// and reputation boosts. The table is fixed: reward amounts are bound
// to an action at submission time and never recomputed, so changing
// these values never rewrites history.
package reputation

// ActionType identifies a category of environmental action.
type ActionType string

const (
	Cleanup         ActionType = "cleanup"
	Recycling       ActionType = "recycling"
	EnergyReduction ActionType = "energy_reduction"
	Biodiversity    ActionType = "biodiversity"
)

// Award pairs the token reward with the reputation boost for one
// verified action.
type Award struct {
	Reward uint64
	Boost  uint64
}

var table = map[ActionType]Award{
	Cleanup:         {Reward: 100, Boost: 10},
	Recycling:       {Reward: 50, Boost: 5},
	EnergyReduction: {Reward: 75, Boost: 8},
	Biodiversity:    {Reward: 150, Boost: 15},
}

// RewardAndBoost returns the reward amount and reputation boost for an
// action type. Unknown types yield (0, 0); the registry rejects those
// as invalid.
func RewardAndBoost(t ActionType) (uint64, uint64) {
	a := table[t]
	return a.Reward, a.Boost
}

// Known reports whether t has a configured reward.
func Known(t ActionType) bool {
	_, ok := table[t]
	return ok
}

// Types returns every configured action type. Order is unspecified.
func Types() []ActionType {
	out := make([]ActionType, 0, len(table))
	for t := range table {
		out = append(out, t)
	}
	return out
}
