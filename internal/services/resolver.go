package services

import (
	"strings"

	"truck-tracking-service/internal/domain"
)

// ContainmentResolver combines the geofence index with destination profiles
// to produce a per-level containment result for a point.
type ContainmentResolver struct {
	Index    *GeofenceIndex
	Profiles map[string]domain.DestinationProfile
}

// Resolve reports, for each hierarchy level, the region containing the
// point.
//
// Matching is two-phase per level. When the destination has a profile entry
// for the level, regions whose name matches the expected name (substring,
// case-insensitive, either direction) are tried first; this tolerates
// naming variants like "PLANTA SANTA CRUZ" vs "SANTA CRUZ". If no
// name-matched region geometrically contains the point, every region at the
// level is tried and the first geometric hit wins. Destination metadata is
// sometimes stale, so the generic fallback is required to avoid losing
// containment entirely.
func (cr *ContainmentResolver) Resolve(p domain.Point, destinationID string) domain.Containment {
	var expected map[domain.HierarchyLevel]string
	if profile, ok := cr.Profiles[destinationID]; ok {
		expected = profile.Expected
	}

	result := make(domain.Containment, 4)
	for _, level := range domain.Levels() {
		if want := expected[level]; want != "" {
			if name, ok := cr.matchNamed(level, want, p); ok {
				result[level] = name
				continue
			}
		}
		if name, ok := cr.matchAny(level, p); ok {
			result[level] = name
		}
	}
	return result
}

func (cr *ContainmentResolver) matchNamed(level domain.HierarchyLevel, want string, p domain.Point) (string, bool) {
	wantUpper := strings.ToUpper(want)
	for _, r := range cr.Index.RegionsAt(level) {
		nameUpper := strings.ToUpper(r.Name)
		if !strings.Contains(nameUpper, wantUpper) && !strings.Contains(wantUpper, nameUpper) {
			continue
		}
		if r.Contains(p) {
			return r.Name, true
		}
	}
	return "", false
}

func (cr *ContainmentResolver) matchAny(level domain.HierarchyLevel, p domain.Point) (string, bool) {
	for _, r := range cr.Index.RegionsAt(level) {
		if r.Contains(p) {
			return r.Name, true
		}
	}
	return "", false
}
