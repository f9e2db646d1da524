package domain

import (
	"strings"
	"time"
)

// DeliveryState is a coarse label for where in the delivery journey a truck
// currently is, derived from geofence containment.
type DeliveryState string

const (
	StateInTransit            DeliveryState = "IN_TRANSIT"
	StateInCity               DeliveryState = "IN_CITY"
	StateInDistributionCenter DeliveryState = "IN_DISTRIBUTION_CENTER"
	StateInUnloadZone         DeliveryState = "IN_UNLOAD_ZONE"
	StateUnloading            DeliveryState = "UNLOADING"
	StateUnloadConfirmed      DeliveryState = "UNLOAD_CONFIRMED"
)

// AlertLevel classifies how long a truck has been waiting for unloading.
type AlertLevel string

const (
	AlertNormal    AlertLevel = "NORMAL"
	AlertAttention AlertLevel = "ATTENTION"
	AlertWarning   AlertLevel = "WARNING"
	AlertCritical  AlertLevel = "CRITICAL"
)

// DischargeState is the display label for the waiting condition.
type DischargeState string

const (
	DischargeAtDocks         DischargeState = "AT_DOCKS"
	DischargeAtTrackAndTrace DischargeState = "AT_TRACK_AND_TRACE"
	DischargeUnloading       DischargeState = "UNLOADING"
	DischargeUnloadZone      DischargeState = "UNLOAD_ZONE"
	DischargeNotWaiting      DischargeState = "NOT_WAITING"
)

// DischargeHeldByStatus labels a truck whose manifest status alone (not
// geofence containment) marks it as waiting.
func DischargeHeldByStatus(status string) DischargeState {
	if status == "" {
		status = "UNKNOWN"
	}
	return DischargeState("STATUS_" + strings.ToUpper(status))
}

// Containment maps each hierarchy level to the name of the region containing
// the truck. A missing key means the truck is outside every region at that
// level. Recomputed every cycle, never persisted directly.
type Containment map[HierarchyLevel]string

func (c Containment) In(level HierarchyLevel) bool {
	_, ok := c[level]
	return ok
}

// ManifestEntry is one active delivery manifest row from the manifest feed.
type ManifestEntry struct {
	VehicleID     string
	ManifestID    string
	DestinationID string
	Status        string
	Origin        string
	Product       string
	ProductCode   string
}

// Position is one vehicle position report from the position feed.
type Position struct {
	VehicleID  string
	Latitude   float64
	Longitude  float64
	SpeedKmh   float64
	ObservedAt time.Time
}

// TrackingRecord is the per-truck output of one processing cycle, uniquely
// identified by (VehicleID, ManifestID). WaitStartedAt is set on the first
// observation of the waiting condition and preserved by the persistence
// layer on every later upsert for the same key.
type TrackingRecord struct {
	VehicleID     string
	ManifestID    string
	DestinationID string
	Status        string
	Product       string

	Latitude  float64
	Longitude float64
	SpeedKmh  float64

	Containment   Containment
	ProgressPct   float64
	DeliveryState DeliveryState

	WaitStartedAt  *time.Time
	WaitMinutes    int
	DischargeState DischargeState
	AlertLevel     AlertLevel

	ObservedAt    time.Time
	LastUpdatedAt time.Time
}

func (r *TrackingRecord) WaitHours() float64 {
	return float64(r.WaitMinutes) / 60.0
}
