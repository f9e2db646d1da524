package services

import (
	"testing"

	"truck-tracking-service/internal/domain"
)

func TestDeliveryProgress(t *testing.T) {
	cases := []struct {
		name      string
		levels    []domain.HierarchyLevel
		wantPct   float64
		wantState domain.DeliveryState
	}{
		{"in transit", nil, 0, domain.StateInTransit},
		{"city only", []domain.HierarchyLevel{domain.LevelCity}, 25, domain.StateInCity},
		{"city and dc", []domain.HierarchyLevel{domain.LevelCity, domain.LevelDistributionCenter}, 50, domain.StateInDistributionCenter},
		{"city dc tat", []domain.HierarchyLevel{domain.LevelCity, domain.LevelDistributionCenter, domain.LevelTrackAndTrace}, 80, domain.StateInUnloadZone},
		{"all four", []domain.HierarchyLevel{domain.LevelCity, domain.LevelDistributionCenter, domain.LevelTrackAndTrace, domain.LevelDocks}, 100, domain.StateUnloadConfirmed},
		// Non-adjacent presence still sums weights; the most specific
		// level supplies the state.
		{"city and docks", []domain.HierarchyLevel{domain.LevelCity, domain.LevelDocks}, 45, domain.StateUnloading},
		{"docks only", []domain.HierarchyLevel{domain.LevelDocks}, 20, domain.StateUnloading},
		{"tat only", []domain.HierarchyLevel{domain.LevelTrackAndTrace}, 30, domain.StateInUnloadZone},
	}

	for _, tc := range cases {
		c := make(domain.Containment)
		for _, l := range tc.levels {
			c[l] = "REGION"
		}
		pct, state := DeliveryProgress(c)
		if pct != tc.wantPct || state != tc.wantState {
			t.Errorf("%s: got (%v, %s), want (%v, %s)", tc.name, pct, state, tc.wantPct, tc.wantState)
		}
	}
}
