package ports

import (
	"context"
	"truck-tracking-service/internal/domain"
)

// AlertNotifier publishes critical alerts to an out-of-band channel for
// operator notification. Implementations deduplicate repeated alerts for
// the same key themselves.
type AlertNotifier interface {
	PublishCritical(ctx context.Context, records []domain.TrackingRecord) error
}
