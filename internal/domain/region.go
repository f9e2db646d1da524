package domain

import "fmt"

// Immutable geographic coordinates (longitude, latitude).
type Point struct {
	Lon float64
	Lat float64
}

// HierarchyLevel is one of the four fixed geofence categories, ordered by
// specificity (docks are the most specific, cities the least).
type HierarchyLevel int

const (
	LevelDocks HierarchyLevel = iota
	LevelTrackAndTrace
	LevelDistributionCenter
	LevelCity
)

// Levels in matching precedence order, most specific first.
func Levels() []HierarchyLevel {
	return []HierarchyLevel{LevelDocks, LevelTrackAndTrace, LevelDistributionCenter, LevelCity}
}

// ProgressLevels in accumulation order, least specific first.
func ProgressLevels() []HierarchyLevel {
	return []HierarchyLevel{LevelCity, LevelDistributionCenter, LevelTrackAndTrace, LevelDocks}
}

func (l HierarchyLevel) String() string {
	switch l {
	case LevelDocks:
		return "DOCKS"
	case LevelTrackAndTrace:
		return "TRACK_AND_TRACE"
	case LevelDistributionCenter:
		return "DISTRIBUTION_CENTER"
	case LevelCity:
		return "CITY"
	}
	return fmt.Sprintf("HierarchyLevel(%d)", int(l))
}

// ParseHierarchyLevel accepts the canonical level names plus the group
// labels used by the upstream geofence exports.
func ParseHierarchyLevel(s string) (HierarchyLevel, error) {
	switch s {
	case "DOCKS":
		return LevelDocks, nil
	case "TRACK_AND_TRACE", "TRACK AND TRACE":
		return LevelTrackAndTrace, nil
	case "DISTRIBUTION_CENTER", "CBN":
		return LevelDistributionCenter, nil
	case "CITY", "CIUDADES":
		return LevelCity, nil
	}
	return 0, fmt.Errorf("parse hierarchy level: unknown level %q", s)
}

// Region is a named polygonal geofence belonging to exactly one hierarchy
// level. Boundary is nil when fewer than 3 coordinate pairs were parseable;
// such regions are retained for inventory but never match a point.
type Region struct {
	Level    HierarchyLevel
	Name     string
	Boundary []Point
}

// Contains reports whether p lies inside the region's boundary. Points on
// the boundary itself count as inside (closed-boundary containment).
func (r *Region) Contains(p Point) bool {
	if len(r.Boundary) < 3 {
		return false
	}
	return pointInRing(p, r.Boundary)
}

// Ray-casting membership test with an explicit on-edge check so boundary
// points are classified consistently.
func pointInRing(pt Point, ring []Point) bool {
	n := len(ring)
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := ring[j], ring[i]
		if pointOnSegment(pt, a, b) {
			return true
		}
		if (a.Lat > pt.Lat) != (b.Lat > pt.Lat) &&
			pt.Lon < (b.Lon-a.Lon)*(pt.Lat-a.Lat)/(b.Lat-a.Lat+1e-12)+a.Lon {
			inside = !inside
		}
	}
	return inside
}

func pointOnSegment(pt, a, b Point) bool {
	const eps = 1e-9
	cross := (b.Lon-a.Lon)*(pt.Lat-a.Lat) - (b.Lat-a.Lat)*(pt.Lon-a.Lon)
	if cross > eps || cross < -eps {
		return false
	}
	dot := (pt.Lon-a.Lon)*(b.Lon-a.Lon) + (pt.Lat-a.Lat)*(b.Lat-a.Lat)
	if dot < -eps {
		return false
	}
	sq := (b.Lon-a.Lon)*(b.Lon-a.Lon) + (b.Lat-a.Lat)*(b.Lat-a.Lat)
	return dot <= sq+eps
}
