package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"truck-tracking-service/internal/domain"
)

// RedisAlertNotifier publishes critical alerts to a Redis channel for the
// notification workers. A short-TTL dedup key per (vehicle, manifest)
// suppresses re-publishing the same alert every cycle.
type RedisAlertNotifier struct {
	client   *redis.Client
	channel  string
	dedupTTL time.Duration
}

func NewRedisAlertNotifier(ctx context.Context, addr, password string, db int, channel string) (*RedisAlertNotifier, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("alert notifier: connect to redis: %w", err)
	}

	return &RedisAlertNotifier{
		client:   client,
		channel:  channel,
		dedupTTL: 30 * time.Minute,
	}, nil
}

func (n *RedisAlertNotifier) Close() error {
	return n.client.Close()
}

type alertPayload struct {
	VehicleID     string  `json:"vehicle_id"`
	ManifestID    string  `json:"manifest_id"`
	DestinationID string  `json:"destination_id"`
	WaitHours     float64 `json:"wait_hours"`
	AlertLevel    string  `json:"alert_level"`
	TriggeredAt   int64   `json:"triggered_at"`
}

// PublishCritical publishes one message per not-recently-seen critical
// truck. Dedup or publish failures for one truck do not block the rest.
func (n *RedisAlertNotifier) PublishCritical(ctx context.Context, records []domain.TrackingRecord) error {
	var firstErr error
	for _, rec := range records {
		dedupKey := fmt.Sprintf("alert:%s:%s", rec.VehicleID, rec.ManifestID)

		set, err := n.client.SetNX(ctx, dedupKey, "1", n.dedupTTL).Result()
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("alert dedup vehicle=%s: %w", rec.VehicleID, err)
			}
			continue
		}
		if !set {
			continue
		}

		payload, err := json.Marshal(alertPayload{
			VehicleID:     rec.VehicleID,
			ManifestID:    rec.ManifestID,
			DestinationID: rec.DestinationID,
			WaitHours:     rec.WaitHours(),
			AlertLevel:    string(rec.AlertLevel),
			TriggeredAt:   time.Now().Unix(),
		})
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("alert marshal vehicle=%s: %w", rec.VehicleID, err)
			}
			continue
		}

		if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("alert publish vehicle=%s: %w", rec.VehicleID, err)
			}
			continue
		}
		log.Printf("critical alert published vehicle=%s manifest=%s wait_hours=%.1f",
			rec.VehicleID, rec.ManifestID, rec.WaitHours())
	}
	return firstErr
}
