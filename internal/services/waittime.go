package services

import (
	"context"
	"log"
	"time"

	"truck-tracking-service/internal/domain"
	"truck-tracking-service/internal/ports"
)

// WaitThresholds configure the alert classification of waiting time.
type WaitThresholds struct {
	Attention time.Duration
	Warning   time.Duration
	Critical  time.Duration
}

func DefaultWaitThresholds() WaitThresholds {
	return WaitThresholds{
		Attention: 4 * time.Hour,
		Warning:   8 * time.Hour,
		Critical:  48 * time.Hour,
	}
}

// Classify is a pure function of elapsed wait and the thresholds.
func (t WaitThresholds) Classify(wait time.Duration) domain.AlertLevel {
	switch {
	case wait >= t.Critical:
		return domain.AlertCritical
	case wait >= t.Warning:
		return domain.AlertWarning
	case wait >= t.Attention:
		return domain.AlertAttention
	default:
		return domain.AlertNormal
	}
}

// WaitTimeEngine determines whether a truck is waiting for discharge, for
// how long, and at which alert severity.
type WaitTimeEngine struct {
	Repo ports.TrackingRepository

	// History returns the earliest known discharge-zone entry for a vehicle
	// from the historical import, when one exists.
	History func(vehicleID string) (time.Time, bool)

	// DepartedStatus is the manifest status meaning "in motion / departed".
	// Any other status marks the truck as waiting.
	DepartedStatus string

	Now func() time.Time
}

// WaitResult is the wait evaluation for one truck in one cycle.
type WaitResult struct {
	Waiting        bool
	WaitStartedAt  *time.Time
	WaitMinutes    int
	DischargeState domain.DischargeState
	AlertLevel     domain.AlertLevel
}

// Evaluate computes the waiting condition and elapsed wait for one truck.
//
// Start-time precedence: historical import, then the previously persisted
// wait start for this (vehicle, manifest) key, then now. Errors reading
// persisted state degrade to the first-observation case (zero wait) and are
// logged; they never fail the cycle.
func (e *WaitTimeEngine) Evaluate(
	ctx context.Context,
	entry domain.ManifestEntry,
	containment domain.Containment,
	state domain.DeliveryState,
	thresholds WaitThresholds,
) WaitResult {
	waiting := entry.Status != e.DepartedStatus ||
		containment.In(domain.LevelDocks) ||
		containment.In(domain.LevelTrackAndTrace) ||
		state == domain.StateInUnloadZone ||
		state == domain.StateUnloading ||
		state == domain.StateUnloadConfirmed

	discharge := e.dischargeState(entry, containment, state)

	if !waiting {
		return WaitResult{
			Waiting:        false,
			DischargeState: discharge,
			AlertLevel:     domain.AlertNormal,
		}
	}

	now := e.Now()
	start := now

	if t, ok := e.historyStart(entry.VehicleID); ok {
		start = t
	} else if persisted := e.persistedStart(ctx, entry); persisted != nil {
		start = *persisted
	}

	elapsed := now.Sub(start)
	if elapsed < 0 {
		elapsed = 0
	}

	return WaitResult{
		Waiting:        true,
		WaitStartedAt:  &start,
		WaitMinutes:    int(elapsed.Minutes()),
		DischargeState: discharge,
		AlertLevel:     thresholds.Classify(elapsed),
	}
}

func (e *WaitTimeEngine) historyStart(vehicleID string) (time.Time, bool) {
	if e.History == nil {
		return time.Time{}, false
	}
	return e.History(vehicleID)
}

func (e *WaitTimeEngine) persistedStart(ctx context.Context, entry domain.ManifestEntry) *time.Time {
	if e.Repo == nil {
		return nil
	}
	start, err := e.Repo.GetWaitStart(ctx, entry.VehicleID, entry.ManifestID)
	if err != nil {
		log.Printf("wait start lookup failed vehicle=%s manifest=%s err=%v (treating as first observation)",
			entry.VehicleID, entry.ManifestID, err)
		return nil
	}
	return start
}

// dischargeState derives the display label for the waiting condition. A
// non-departed manifest status takes precedence, then the most specific
// geofence, then the delivery state.
func (e *WaitTimeEngine) dischargeState(
	entry domain.ManifestEntry,
	containment domain.Containment,
	state domain.DeliveryState,
) domain.DischargeState {
	switch {
	case entry.Status != e.DepartedStatus:
		return domain.DischargeHeldByStatus(entry.Status)
	case containment.In(domain.LevelDocks):
		return domain.DischargeAtDocks
	case containment.In(domain.LevelTrackAndTrace):
		return domain.DischargeAtTrackAndTrace
	case state == domain.StateUnloading || state == domain.StateUnloadConfirmed:
		return domain.DischargeUnloading
	case state == domain.StateInUnloadZone:
		return domain.DischargeUnloadZone
	default:
		return domain.DischargeNotWaiting
	}
}
