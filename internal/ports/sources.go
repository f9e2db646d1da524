package ports

import (
	"context"
	"time"

	"truck-tracking-service/internal/domain"
)

// GeofenceRow is one raw geofence definition: a hierarchy level label, a
// region name, and an unparsed coordinate string ("lat lng, lat lng, ...").
type GeofenceRow struct {
	Level  string
	Name   string
	Points string
}

// GeofenceSource provides the reloadable batch of geofence definitions.
type GeofenceSource interface {
	ListGeofences(ctx context.Context) ([]GeofenceRow, error)
}

// HistorySource provides the earliest known discharge-zone entry per vehicle
// from a historical import.
type HistorySource interface {
	ListWaitStarts(ctx context.Context) (map[string]time.Time, error)
}

// ProfileSource provides destination profiles. Optional; the engine falls
// back to the built-in defaults.
type ProfileSource interface {
	ListProfiles(ctx context.Context) ([]domain.DestinationProfile, error)
}
