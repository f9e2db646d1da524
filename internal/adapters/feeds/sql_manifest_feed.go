package feeds

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"truck-tracking-service/internal/domain"
	"truck-tracking-service/internal/platform/obs"
)

// SQLManifestFeed reads active delivery manifests from the dispatch
// database's trucks table.
type SQLManifestFeed struct {
	DB *sql.DB

	// DepartedStatus marks the only status considered "active"; later rows
	// for the same vehicle supersede earlier ones.
	DepartedStatus string
}

func NewSQLManifestFeed(db *sql.DB, departedStatus string) *SQLManifestFeed {
	return &SQLManifestFeed{DB: db, DepartedStatus: departedStatus}
}

// ListActiveManifests returns the most recent departed manifest per vehicle
// that has not been superseded by a later trip.
func (s *SQLManifestFeed) ListActiveManifests(ctx context.Context) (_ []domain.ManifestEntry, err error) {
	defer obs.Time(ctx, "manifests.ListActiveManifests")(&err)

	if s.DB == nil {
		return nil, errors.New("manifest feed: DB is nil")
	}

	query := `
	SELECT t1.patente, t1.planilla, t1.deposito_destino, t1.deposito_origen,
	       t1.status, t1.producto, t1.cod_producto
	FROM trucks t1
	WHERE t1.status = $1
	  AND NOT EXISTS (
	    SELECT 1
	    FROM trucks t2
	    WHERE t2.patente = t1.patente
	      AND (
	        t2.fecha_salida > t1.fecha_salida
	        OR (t2.fecha_salida = t1.fecha_salida AND t2.hora_salida > t1.hora_salida)
	      )
	  )
	ORDER BY t1.fecha_salida DESC, t1.hora_salida DESC;
	`

	rows, err := s.DB.QueryContext(ctx, query, s.DepartedStatus)
	if err != nil {
		return nil, fmt.Errorf("list active manifests: query trucks table: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.ManifestEntry, 0, 64)
	for rows.Next() {
		var e domain.ManifestEntry
		var manifest, destination, origin, product, productCode sql.NullString
		if err := rows.Scan(&e.VehicleID, &manifest, &destination, &origin, &e.Status, &product, &productCode); err != nil {
			return nil, fmt.Errorf("list active manifests: scan row: %w", err)
		}
		e.ManifestID = manifest.String
		e.DestinationID = destination.String
		e.Origin = origin.String
		e.Product = product.String
		e.ProductCode = productCode.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list active manifests: row iteration: %w", err)
	}

	return entries, nil
}
