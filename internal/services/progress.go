package services

import "truck-tracking-service/internal/domain"

// Fixed progress weight per hierarchy level. Each present level contributes
// its weight independently of the others.
var progressWeights = map[domain.HierarchyLevel]float64{
	domain.LevelCity:               25,
	domain.LevelDistributionCenter: 25,
	domain.LevelTrackAndTrace:      30,
	domain.LevelDocks:              20,
}

var levelStates = map[domain.HierarchyLevel]domain.DeliveryState{
	domain.LevelCity:               domain.StateInCity,
	domain.LevelDistributionCenter: domain.StateInDistributionCenter,
	domain.LevelTrackAndTrace:      domain.StateInUnloadZone,
	domain.LevelDocks:              domain.StateUnloading,
}

// DeliveryProgress maps a containment result to a progress percentage and a
// named delivery state.
//
// The percentage is the capped sum of the weights of all present levels.
// The state is that of the most specific present level, so a truck present
// at non-adjacent levels (say city + docks) reports the summed percentage
// with the docks state. That matches the production rules this system
// replaces; do not "fix" the ordering without flagging the change.
// All four levels present overrides to (100, UNLOAD_CONFIRMED).
func DeliveryProgress(c domain.Containment) (float64, domain.DeliveryState) {
	pct := 0.0
	state := domain.StateInTransit

	for _, level := range domain.ProgressLevels() {
		if c.In(level) {
			pct += progressWeights[level]
			state = levelStates[level]
		}
	}

	allPresent := true
	for _, level := range domain.Levels() {
		if !c.In(level) {
			allPresent = false
			break
		}
	}
	if allPresent {
		return 100, domain.StateUnloadConfirmed
	}

	if pct > 100 {
		pct = 100
	}
	return pct, state
}
