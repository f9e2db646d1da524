package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"truck-tracking-service/internal/domain"
	"truck-tracking-service/internal/platform/obs"
)

// SQLTrackingRepository is the Postgres implementation of the
// TrackingRepository port.
type SQLTrackingRepository struct {
	DB *sql.DB
}

func NewSQLTrackingRepository(db *sql.DB) *SQLTrackingRepository {
	return &SQLTrackingRepository{DB: db}
}

// Upsert writes one tracking record keyed by (vehicle_id, manifest_id).
//
// On conflict every field is overwritten except wait_started_at, which is
// COALESCEd with the stored value: the first-observed wait start survives
// every later update for the key. A single statement keeps the
// read-modify-write atomic under concurrent cycles.
func (s *SQLTrackingRepository) Upsert(ctx context.Context, rec *domain.TrackingRecord) (err error) {
	defer obs.Time(ctx, "tracking.Upsert")(&err)

	if s.DB == nil {
		return errors.New("tracking repository: DB is nil")
	}

	query := `
	INSERT INTO truck_tracking (
		vehicle_id, manifest_id, destination_id, status, product,
		latitude, longitude, speed_kmh,
		region_docks, region_track_trace, region_distribution, region_city,
		progress_pct, delivery_state,
		wait_started_at, wait_minutes, discharge_state, alert_level,
		observed_at, last_updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
	        $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	ON CONFLICT (vehicle_id, manifest_id) DO UPDATE SET
		destination_id = EXCLUDED.destination_id,
		status = EXCLUDED.status,
		product = EXCLUDED.product,
		latitude = EXCLUDED.latitude,
		longitude = EXCLUDED.longitude,
		speed_kmh = EXCLUDED.speed_kmh,
		region_docks = EXCLUDED.region_docks,
		region_track_trace = EXCLUDED.region_track_trace,
		region_distribution = EXCLUDED.region_distribution,
		region_city = EXCLUDED.region_city,
		progress_pct = EXCLUDED.progress_pct,
		delivery_state = EXCLUDED.delivery_state,
		wait_started_at = COALESCE(truck_tracking.wait_started_at, EXCLUDED.wait_started_at),
		wait_minutes = EXCLUDED.wait_minutes,
		discharge_state = EXCLUDED.discharge_state,
		alert_level = EXCLUDED.alert_level,
		observed_at = EXCLUDED.observed_at,
		last_updated_at = EXCLUDED.last_updated_at;
	`

	_, err = s.DB.ExecContext(ctx, query, upsertArgs(rec)...)
	if err != nil {
		return fmt.Errorf("upsert tracking vehicle=%s manifest=%s: %w", rec.VehicleID, rec.ManifestID, err)
	}
	return nil
}

// GetWaitStart returns the stored wait start for a key, nil when the key is
// unknown or the column is null.
func (s *SQLTrackingRepository) GetWaitStart(ctx context.Context, vehicleID, manifestID string) (*time.Time, error) {
	if s.DB == nil {
		return nil, errors.New("tracking repository: DB is nil")
	}

	query := `
	SELECT wait_started_at
	FROM truck_tracking
	WHERE vehicle_id = $1 AND manifest_id = $2;
	`

	var start sql.NullTime
	err := s.DB.QueryRowContext(ctx, query, vehicleID, manifestID).Scan(&start)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get wait start vehicle=%s manifest=%s: %w", vehicleID, manifestID, err)
	}
	if !start.Valid {
		return nil, nil
	}
	return &start.Time, nil
}

// upsertArgs flattens a record into the statement's positional arguments,
// shared by both SQL backends.
func upsertArgs(rec *domain.TrackingRecord) []any {
	var waitStart any
	if rec.WaitStartedAt != nil {
		waitStart = rec.WaitStartedAt.UTC()
	}
	return []any{
		rec.VehicleID, rec.ManifestID, rec.DestinationID, rec.Status, rec.Product,
		rec.Latitude, rec.Longitude, rec.SpeedKmh,
		regionOrEmpty(rec.Containment, domain.LevelDocks),
		regionOrEmpty(rec.Containment, domain.LevelTrackAndTrace),
		regionOrEmpty(rec.Containment, domain.LevelDistributionCenter),
		regionOrEmpty(rec.Containment, domain.LevelCity),
		rec.ProgressPct, string(rec.DeliveryState),
		waitStart, rec.WaitMinutes, string(rec.DischargeState), string(rec.AlertLevel),
		rec.ObservedAt.UTC(), rec.LastUpdatedAt.UTC(),
	}
}

func regionOrEmpty(c domain.Containment, level domain.HierarchyLevel) string {
	return c[level]
}
