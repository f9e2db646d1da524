package services

import (
	"log"
	"strconv"
	"strings"

	"truck-tracking-service/internal/domain"
	"truck-tracking-service/internal/ports"
)

// GeofenceIndex holds the named regions grouped by hierarchy level and
// answers containment queries. Immutable after build; reloads swap in a
// freshly built index.
type GeofenceIndex struct {
	regions map[domain.HierarchyLevel][]*domain.Region
}

// BuildGeofenceIndex parses raw geofence rows into an index. Malformed rows
// are logged and skipped; regions with fewer than 3 parseable points are
// retained with a nil boundary so they can be listed but never match.
// Building never fails outright.
func BuildGeofenceIndex(rows []ports.GeofenceRow) *GeofenceIndex {
	idx := &GeofenceIndex{regions: make(map[domain.HierarchyLevel][]*domain.Region)}

	var loaded, skipped int
	for i, row := range rows {
		level, err := domain.ParseHierarchyLevel(strings.TrimSpace(row.Level))
		if err != nil {
			log.Printf("geofence row=%d name=%q skipped: %v", i, row.Name, err)
			skipped++
			continue
		}

		name := strings.TrimSpace(row.Name)
		if name == "" {
			log.Printf("geofence row=%d level=%s skipped: empty name", i, level)
			skipped++
			continue
		}

		boundary := parseBoundary(row.Points)
		if len(boundary) < 3 {
			boundary = nil
		}

		idx.regions[level] = append(idx.regions[level], &domain.Region{
			Level:    level,
			Name:     name,
			Boundary: boundary,
		})
		loaded++
	}

	log.Printf("geofence index built: regions=%d skipped=%d", loaded, skipped)
	return idx
}

// parseBoundary parses "lat lng, lat lng, ..." coordinate strings. Tokens
// that fail to parse are dropped individually.
func parseBoundary(raw string) []domain.Point {
	var points []domain.Point
	for _, pair := range strings.Split(raw, ",") {
		fields := strings.Fields(pair)
		if len(fields) < 2 {
			continue
		}
		lat, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			continue
		}
		lng, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}
		points = append(points, domain.Point{Lon: lng, Lat: lat})
	}
	return points
}

// Contains returns the names of all regions at the given level whose
// boundary contains the point.
func (idx *GeofenceIndex) Contains(level domain.HierarchyLevel, p domain.Point) []string {
	var names []string
	for _, r := range idx.regions[level] {
		if r.Contains(p) {
			names = append(names, r.Name)
		}
	}
	return names
}

// RegionsAt returns the regions at one hierarchy level.
func (idx *GeofenceIndex) RegionsAt(level domain.HierarchyLevel) []*domain.Region {
	return idx.regions[level]
}

// Counts returns total and matchable (non-nil boundary) region counts per
// level, for health reporting.
func (idx *GeofenceIndex) Counts() map[string]map[string]int {
	out := make(map[string]map[string]int, len(idx.regions))
	for level, regions := range idx.regions {
		valid := 0
		for _, r := range regions {
			if r.Boundary != nil {
				valid++
			}
		}
		out[level.String()] = map[string]int{"total": len(regions), "matchable": valid}
	}
	return out
}
