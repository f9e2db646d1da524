package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// Dialect selects the DDL flavor for schema initialization.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSqlite   Dialect = "sqlite"
)

// InitSchema creates the tracking table and its indexes. Idempotent; safe
// to run at every startup.
func InitSchema(db *sql.DB, dialect Dialect) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	timestamp := "TIMESTAMPTZ"
	if dialect == DialectSqlite {
		timestamp = "TIMESTAMP"
	}

	createTrackingQuery := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS truck_tracking (
		vehicle_id TEXT NOT NULL,
		manifest_id TEXT NOT NULL,
		destination_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		product TEXT NOT NULL DEFAULT '',
		latitude DOUBLE PRECISION NOT NULL DEFAULT 0,
		longitude DOUBLE PRECISION NOT NULL DEFAULT 0,
		speed_kmh DOUBLE PRECISION NOT NULL DEFAULT 0,
		region_docks TEXT NOT NULL DEFAULT '',
		region_track_trace TEXT NOT NULL DEFAULT '',
		region_distribution TEXT NOT NULL DEFAULT '',
		region_city TEXT NOT NULL DEFAULT '',
		progress_pct DOUBLE PRECISION NOT NULL DEFAULT 0,
		delivery_state TEXT NOT NULL DEFAULT 'IN_TRANSIT',
		wait_started_at %s NULL,
		wait_minutes INTEGER NOT NULL DEFAULT 0,
		discharge_state TEXT NOT NULL DEFAULT 'NOT_WAITING',
		alert_level TEXT NOT NULL DEFAULT 'NORMAL',
		observed_at %s NULL,
		last_updated_at %s NULL,
		PRIMARY KEY (vehicle_id, manifest_id)
	);
	`, timestamp, timestamp, timestamp)

	createAlertIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_truck_tracking_alert_level
	ON truck_tracking(alert_level);
	`

	createWaitIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_truck_tracking_wait_minutes
	ON truck_tracking(wait_minutes);
	`

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	statements := []string{
		createTrackingQuery,
		createAlertIndexQuery,
		createWaitIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
