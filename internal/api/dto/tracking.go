package dto

import (
	"time"

	"truck-tracking-service/internal/domain"
)

// TrackingRow is the wire shape of one tracking record.
type TrackingRow struct {
	VehicleID     string  `json:"vehicle_id"`
	ManifestID    string  `json:"manifest_id"`
	DestinationID string  `json:"destination_id"`
	Status        string  `json:"status"`
	Product       string  `json:"product,omitempty"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	SpeedKmh      float64 `json:"speed_kmh"`

	Regions map[string]string `json:"regions"`

	ProgressPct   float64 `json:"progress_pct"`
	DeliveryState string  `json:"delivery_state"`

	WaitStartedAt  *time.Time `json:"wait_started_at,omitempty"`
	WaitMinutes    int        `json:"wait_minutes"`
	WaitHours      float64    `json:"wait_hours"`
	DischargeState string     `json:"discharge_state"`
	AlertLevel     string     `json:"alert_level"`

	ObservedAt    time.Time `json:"observed_at"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
}

func FromRecord(r domain.TrackingRecord) TrackingRow {
	regions := make(map[string]string, len(r.Containment))
	for level, name := range r.Containment {
		regions[level.String()] = name
	}

	return TrackingRow{
		VehicleID:      r.VehicleID,
		ManifestID:     r.ManifestID,
		DestinationID:  r.DestinationID,
		Status:         r.Status,
		Product:        r.Product,
		Latitude:       r.Latitude,
		Longitude:      r.Longitude,
		SpeedKmh:       r.SpeedKmh,
		Regions:        regions,
		ProgressPct:    r.ProgressPct,
		DeliveryState:  string(r.DeliveryState),
		WaitStartedAt:  r.WaitStartedAt,
		WaitMinutes:    r.WaitMinutes,
		WaitHours:      r.WaitHours(),
		DischargeState: string(r.DischargeState),
		AlertLevel:     string(r.AlertLevel),
		ObservedAt:     r.ObservedAt,
		LastUpdatedAt:  r.LastUpdatedAt,
	}
}

// ListTrucksResponse is the payload of GET /trucks.
type ListTrucksResponse struct {
	Trucks    []TrackingRow `json:"trucks"`
	CycleID   string        `json:"cycle_id"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// ThresholdsPayload carries alert thresholds in hours on both the GET and
// PUT sides of /config/alerts.
type ThresholdsPayload struct {
	AttentionHours float64 `json:"attention_hours"`
	WarningHours   float64 `json:"warning_hours"`
	CriticalHours  float64 `json:"critical_hours"`
}
