package ports

import (
	"context"
	"truck-tracking-service/internal/domain"
)

// PositionFeed returns current positions for all known vehicles, keyed by
// vehicle id. Best effort: vehicles missing from the result are skipped for
// the cycle.
type PositionFeed interface {
	ListPositions(ctx context.Context) (map[string]domain.Position, error)
}

// ManifestFeed returns the currently active delivery manifests (the most
// recent manifest per vehicle that has not reached a terminal status).
type ManifestFeed interface {
	ListActiveManifests(ctx context.Context) ([]domain.ManifestEntry, error)
}
