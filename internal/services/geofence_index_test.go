package services

import (
	"testing"

	"truck-tracking-service/internal/domain"
	"truck-tracking-service/internal/ports"
)

func TestBuildGeofenceIndex(t *testing.T) {
	rows := []ports.GeofenceRow{
		{Level: "CIUDADES", Name: "SANTA CRUZ", Points: "-17.60 -63.35, -17.60 -62.95, -17.95 -62.95, -17.95 -63.35"},
		{Level: "DOCKS", Name: "DOCK - 7", Points: "-17.781 -63.188, -17.781 -63.184, -17.785 -63.184, -17.785 -63.188"},
		{Level: "WAREHOUSE", Name: "IGNORED", Points: "0 0, 0 1, 1 1"},
		{Level: "DOCKS", Name: "", Points: "0 0, 0 1, 1 1"},
		{Level: "DOCKS", Name: "TWO POINTS", Points: "0 0, 1 1"},
	}

	idx := BuildGeofenceIndex(rows)

	if got := len(idx.RegionsAt(domain.LevelCity)); got != 1 {
		t.Fatalf("expected 1 city region, got %d", got)
	}
	if got := len(idx.RegionsAt(domain.LevelDocks)); got != 2 {
		t.Fatalf("expected 2 dock regions (one degenerate), got %d", got)
	}

	inCity := idx.Contains(domain.LevelCity, domain.Point{Lat: -17.78, Lon: -63.18})
	if len(inCity) != 1 || inCity[0] != "SANTA CRUZ" {
		t.Fatalf("expected SANTA CRUZ containment, got %v", inCity)
	}

	// The degenerate region is listed but never matches.
	counts := idx.Counts()
	docks := counts[domain.LevelDocks.String()]
	if docks["total"] != 2 || docks["matchable"] != 1 {
		t.Fatalf("expected docks total=2 matchable=1, got %v", docks)
	}
}

func TestParseBoundary(t *testing.T) {
	pts := parseBoundary("-17.60 -63.35, bad pair, -17.95 -62.95, -17.95")
	if len(pts) != 2 {
		t.Fatalf("expected 2 parseable points, got %d", len(pts))
	}
	if pts[0].Lat != -17.60 || pts[0].Lon != -63.35 {
		t.Fatalf("unexpected first point %v", pts[0])
	}
}
