package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"truck-tracking-service/internal/domain"
	"truck-tracking-service/internal/ports"
)

// JSONGeofenceSource loads geofence definitions from a JSON seed file:
// an array of {level, name, points} objects where points is the raw
// "lat lng, lat lng, ..." coordinate string from the upstream export.
type JSONGeofenceSource struct {
	Path string
}

type geofenceSeed struct {
	Level  string `json:"level"`
	Name   string `json:"name"`
	Points string `json:"points"`
}

func (s *JSONGeofenceSource) ListGeofences(ctx context.Context) ([]ports.GeofenceRow, error) {
	bytes, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("geofence source: read %q: %w", s.Path, err)
	}

	var seeds []geofenceSeed
	if err := json.Unmarshal(bytes, &seeds); err != nil {
		return nil, fmt.Errorf("geofence source: parse json: %w", err)
	}

	rows := make([]ports.GeofenceRow, 0, len(seeds))
	for _, g := range seeds {
		rows = append(rows, ports.GeofenceRow{Level: g.Level, Name: g.Name, Points: g.Points})
	}
	return rows, nil
}

// JSONHistorySource loads the historical discharge-zone entry import:
// an array of {vehicle_id, entered_at} objects. Only the earliest entry per
// vehicle is kept.
type JSONHistorySource struct {
	Path string
}

type historySeed struct {
	VehicleID string `json:"vehicle_id"`
	EnteredAt string `json:"entered_at"`
}

func (s *JSONHistorySource) ListWaitStarts(ctx context.Context) (map[string]time.Time, error) {
	bytes, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("history source: read %q: %w", s.Path, err)
	}

	var seeds []historySeed
	if err := json.Unmarshal(bytes, &seeds); err != nil {
		return nil, fmt.Errorf("history source: parse json: %w", err)
	}

	out := make(map[string]time.Time, len(seeds))
	for i, h := range seeds {
		vehicle := strings.TrimSpace(h.VehicleID)
		if vehicle == "" {
			continue
		}
		ts, err := parseHistoryTime(h.EnteredAt)
		if err != nil {
			return nil, fmt.Errorf("history source: item %d vehicle=%s: %w", i+1, vehicle, err)
		}
		if existing, ok := out[vehicle]; !ok || ts.Before(existing) {
			out[vehicle] = ts
		}
	}
	return out, nil
}

// The upstream export writes dd/mm/yyyy timestamps; newer exports use
// RFC 3339.
func parseHistoryTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339, "02/01/2006 15:04:05", "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", raw)
}

// JSONProfileSource loads destination profiles: an array of
// {destination_id, city, distribution_center, track_and_trace, docks}.
type JSONProfileSource struct {
	Path string
}

type profileSeed struct {
	DestinationID      string `json:"destination_id"`
	City               string `json:"city"`
	DistributionCenter string `json:"distribution_center"`
	TrackAndTrace      string `json:"track_and_trace"`
	Docks              string `json:"docks"`
}

func (s *JSONProfileSource) ListProfiles(ctx context.Context) ([]domain.DestinationProfile, error) {
	bytes, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("profile source: read %q: %w", s.Path, err)
	}

	var seeds []profileSeed
	if err := json.Unmarshal(bytes, &seeds); err != nil {
		return nil, fmt.Errorf("profile source: parse json: %w", err)
	}

	profiles := make([]domain.DestinationProfile, 0, len(seeds))
	for i, p := range seeds {
		id := strings.TrimSpace(p.DestinationID)
		if id == "" {
			return nil, fmt.Errorf("profile source: item %d: destination_id cannot be empty", i+1)
		}
		expected := map[domain.HierarchyLevel]string{}
		if p.City != "" {
			expected[domain.LevelCity] = p.City
		}
		if p.DistributionCenter != "" {
			expected[domain.LevelDistributionCenter] = p.DistributionCenter
		}
		if p.TrackAndTrace != "" {
			expected[domain.LevelTrackAndTrace] = p.TrackAndTrace
		}
		if p.Docks != "" {
			expected[domain.LevelDocks] = p.Docks
		}
		profiles = append(profiles, domain.DestinationProfile{DestinationID: id, Expected: expected})
	}
	return profiles, nil
}
