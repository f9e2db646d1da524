package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"truck-tracking-service/internal/domain"
)

// SqliteTrackingRepository is the SQLite-backed implementation of the
// TrackingRepository port, used for local runs without Postgres.
type SqliteTrackingRepository struct {
	DB *sql.DB
}

func NewSqliteTrackingRepository(db *sql.DB) *SqliteTrackingRepository {
	return &SqliteTrackingRepository{DB: db}
}

func (s *SqliteTrackingRepository) Upsert(ctx context.Context, rec *domain.TrackingRecord) error {
	if s.DB == nil {
		return errors.New("sqlite tracking repository: DB is nil")
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
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (vehicle_id, manifest_id) DO UPDATE SET
		destination_id = excluded.destination_id,
		status = excluded.status,
		product = excluded.product,
		latitude = excluded.latitude,
		longitude = excluded.longitude,
		speed_kmh = excluded.speed_kmh,
		region_docks = excluded.region_docks,
		region_track_trace = excluded.region_track_trace,
		region_distribution = excluded.region_distribution,
		region_city = excluded.region_city,
		progress_pct = excluded.progress_pct,
		delivery_state = excluded.delivery_state,
		wait_started_at = COALESCE(truck_tracking.wait_started_at, excluded.wait_started_at),
		wait_minutes = excluded.wait_minutes,
		discharge_state = excluded.discharge_state,
		alert_level = excluded.alert_level,
		observed_at = excluded.observed_at,
		last_updated_at = excluded.last_updated_at;
	`

	if _, err := s.DB.ExecContext(ctx, query, upsertArgs(rec)...); err != nil {
		return fmt.Errorf("upsert tracking vehicle=%s manifest=%s: %w", rec.VehicleID, rec.ManifestID, err)
	}
	return nil
}

func (s *SqliteTrackingRepository) GetWaitStart(ctx context.Context, vehicleID, manifestID string) (*time.Time, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite tracking repository: DB is nil")
	}

	query := `
	SELECT wait_started_at
	FROM truck_tracking
	WHERE vehicle_id = ? AND manifest_id = ?;
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
