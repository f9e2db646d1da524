package ports

import (
	"context"
	"time"

	"truck-tracking-service/internal/domain"
)

// TrackingRepository persists one tracking record per (vehicle id, manifest
// id) key.
//
// Upsert must be atomic per key: insert when the key is new, otherwise
// overwrite every field except wait_started_at, which keeps its existing
// non-null value (coalesce semantics). That is the monotonic-floor contract
// the wait engine relies on.
type TrackingRepository interface {
	Upsert(ctx context.Context, rec *domain.TrackingRecord) error

	// GetWaitStart returns the persisted wait start for a key, or nil when
	// the key is unknown or has no wait start recorded.
	GetWaitStart(ctx context.Context, vehicleID, manifestID string) (*time.Time, error)
}
