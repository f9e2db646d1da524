package domain

// DestinationProfile names the region expected at each hierarchy level for
// one delivery destination. Static reference data; the expected names
// tolerate naming variants via substring matching in the resolver.
type DestinationProfile struct {
	DestinationID string
	Expected      map[HierarchyLevel]string
}

// DefaultDestinationProfiles covers the three brewery plants served by the
// fleet. Deployments with more destinations load profiles from a seed file.
func DefaultDestinationProfiles() map[string]DestinationProfile {
	profiles := []DestinationProfile{
		{
			DestinationID: "Cerveceria SCZ",
			Expected: map[HierarchyLevel]string{
				LevelCity:               "SANTA CRUZ",
				LevelDistributionCenter: "PLANTA SANTA CRUZ",
				LevelTrackAndTrace:      "TYT - PLANTA SANTA CRUZ",
				LevelDocks:              "DOCK - 7 - PLANTA SANTA CRUZ",
			},
		},
		{
			DestinationID: "Cerveceria LPZ",
			Expected: map[HierarchyLevel]string{
				LevelCity:               "LA PAZ",
				LevelDistributionCenter: "PLANTA LA PAZ",
				LevelTrackAndTrace:      "TYT - PLANTA LA PAZ",
				LevelDocks:              "DOCK - 3 - PLANTA LA PAZ",
			},
		},
		{
			DestinationID: "Cerveceria CBBA",
			Expected: map[HierarchyLevel]string{
				LevelCity:               "COCHABAMBA",
				LevelDistributionCenter: "PLANTA COCHABAMBA",
				LevelTrackAndTrace:      "TYT - PLANTA COCHABAMBA",
				LevelDocks:              "DOCK - 5 - PLANTA COCHABAMBA",
			},
		},
	}

	out := make(map[string]DestinationProfile, len(profiles))
	for _, p := range profiles {
		out[p.DestinationID] = p
	}
	return out
}
