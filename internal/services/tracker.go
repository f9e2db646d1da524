package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"truck-tracking-service/internal/domain"
	"truck-tracking-service/internal/platform/metrics"
	"truck-tracking-service/internal/platform/obs"
	"truck-tracking-service/internal/ports"
)

// ErrCycleInProgress reports that another processing cycle already holds
// the cycle lock. Callers treat it as a no-op, not a failure.
var ErrCycleInProgress = errors.New("processing cycle already in progress")

// Snapshot is one fully computed batch of tracking records plus its cycle
// completion time. Published atomically; readers never see a partial batch.
type Snapshot struct {
	Records   []domain.TrackingRecord
	CycleID   string
	UpdatedAt time.Time
}

// TrackerConfig tunes the processing cycle.
type TrackerConfig struct {
	CacheTTL       time.Duration
	CycleTimeout   time.Duration
	Workers        int
	DepartedStatus string
	Thresholds     WaitThresholds
}

// Tracker is the engine context: all long-lived state (geofence index,
// destination profiles, historical wait starts, cache snapshot, thresholds)
// lives here, constructed once at startup and passed by handle. No ambient
// globals.
type Tracker struct {
	positions ports.PositionFeed
	manifests ports.ManifestFeed
	repo      ports.TrackingRepository
	geofences ports.GeofenceSource
	history   ports.HistorySource
	notifier  ports.AlertNotifier

	mu          sync.RWMutex
	index       *GeofenceIndex
	profiles    map[string]domain.DestinationProfile
	historyData map[string]time.Time
	thresholds  WaitThresholds

	// cycleMu makes cycles mutually exclusive with each other; concurrent
	// triggers never interleave upserts for the same key. Readers do not
	// take it: they load the last published snapshot.
	cycleMu  sync.Mutex
	snapshot atomic.Pointer[Snapshot]
	lastRun  atomic.Pointer[time.Time]

	cacheTTL       time.Duration
	cycleTimeout   time.Duration
	workers        int
	departedStatus string

	now func() time.Time
}

func NewTracker(
	positions ports.PositionFeed,
	manifests ports.ManifestFeed,
	repo ports.TrackingRepository,
	geofences ports.GeofenceSource,
	history ports.HistorySource,
	notifier ports.AlertNotifier,
	cfg TrackerConfig,
) *Tracker {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 300 * time.Second
	}
	if cfg.CycleTimeout <= 0 {
		cfg.CycleTimeout = 2 * time.Minute
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	if cfg.DepartedStatus == "" {
		cfg.DepartedStatus = "SALIDA"
	}
	if cfg.Thresholds == (WaitThresholds{}) {
		cfg.Thresholds = DefaultWaitThresholds()
	}

	return &Tracker{
		positions:      positions,
		manifests:      manifests,
		repo:           repo,
		geofences:      geofences,
		history:        history,
		notifier:       notifier,
		profiles:       domain.DefaultDestinationProfiles(),
		historyData:    map[string]time.Time{},
		thresholds:     cfg.Thresholds,
		cacheTTL:       cfg.CacheTTL,
		cycleTimeout:   cfg.CycleTimeout,
		workers:        cfg.Workers,
		departedStatus: cfg.DepartedStatus,
		now:            time.Now,
	}
}

// SetProfiles replaces the destination profiles (seed-file override of the
// built-in defaults).
func (t *Tracker) SetProfiles(profiles []domain.DestinationProfile) {
	m := make(map[string]domain.DestinationProfile, len(profiles))
	for _, p := range profiles {
		m[p.DestinationID] = p
	}
	t.mu.Lock()
	t.profiles = m
	t.mu.Unlock()
}

// ReloadGeofences rebuilds the geofence index from the source.
func (t *Tracker) ReloadGeofences(ctx context.Context) error {
	if t.geofences == nil {
		return errors.New("reload geofences: no geofence source configured")
	}
	rows, err := t.geofences.ListGeofences(ctx)
	if err != nil {
		return fmt.Errorf("reload geofences: %w", err)
	}
	idx := BuildGeofenceIndex(rows)

	t.mu.Lock()
	t.index = idx
	t.mu.Unlock()
	return nil
}

// ReloadHistory refreshes the historical wait-start import.
func (t *Tracker) ReloadHistory(ctx context.Context) error {
	if t.history == nil {
		return nil
	}
	data, err := t.history.ListWaitStarts(ctx)
	if err != nil {
		return fmt.Errorf("reload history: %w", err)
	}

	t.mu.Lock()
	t.historyData = data
	t.mu.Unlock()
	log.Printf("historical wait starts loaded vehicles=%d", len(data))
	return nil
}

// Thresholds returns the current alert thresholds.
func (t *Tracker) Thresholds() WaitThresholds {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.thresholds
}

// SetThresholds replaces the alert thresholds for subsequent cycles. No
// retroactive recompute of the current snapshot.
func (t *Tracker) SetThresholds(th WaitThresholds) error {
	if th.Attention <= 0 || th.Warning <= th.Attention || th.Critical <= th.Warning {
		return fmt.Errorf("set thresholds: must satisfy 0 < attention < warning < critical, got %v/%v/%v",
			th.Attention, th.Warning, th.Critical)
	}
	t.mu.Lock()
	t.thresholds = th
	t.mu.Unlock()
	return nil
}

// Current returns the latest snapshot, running a cycle synchronously when
// the cache has expired. A failed cycle degrades to the previous snapshot:
// stale-but-available beats unavailable.
func (t *Tracker) Current(ctx context.Context) (*Snapshot, error) {
	if s := t.snapshot.Load(); s != nil && t.now().Sub(s.UpdatedAt) < t.cacheTTL {
		metrics.CacheHitsTotal.Inc()
		return s, nil
	}

	metrics.CacheMissesTotal.Inc()
	err := t.RunCycle(ctx)
	if s := t.snapshot.Load(); s != nil {
		if err != nil && !errors.Is(err, ErrCycleInProgress) {
			log.Printf("cycle failed, serving stale snapshot from=%s err=%v", s.UpdatedAt.Format(time.RFC3339), err)
		}
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	return &Snapshot{UpdatedAt: t.now()}, nil
}

// TriggerCycle starts a cycle without blocking the caller. The returned
// channel yields the cycle's outcome for callers that want to await it.
//
// The cycle runs detached from the caller's cancellation: an HTTP request
// context dies as soon as the handler returns, and the cycle must outlive
// it. The cycle's own timeout still bounds the work.
func (t *Tracker) TriggerCycle(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	detached := context.WithoutCancel(ctx)
	go func() {
		done <- t.RunCycle(detached)
		close(done)
	}()
	return done
}

// RunCycle executes one full processing cycle: pull manifests and
// positions, evaluate every truck, upsert, publish the new snapshot, and
// notify critical alerts. Returns ErrCycleInProgress when a cycle is
// already running.
func (t *Tracker) RunCycle(ctx context.Context) error {
	if !t.cycleMu.TryLock() {
		return ErrCycleInProgress
	}
	defer t.cycleMu.Unlock()

	cycleID := uuid.NewString()[:8]
	ctx, cancel := context.WithTimeout(obs.WithCycleID(ctx, cycleID), t.cycleTimeout)
	defer cancel()

	start := t.now()
	records, err := t.computeBatch(ctx, cycleID)
	if err != nil {
		metrics.CycleFailuresTotal.Inc()
		return fmt.Errorf("cycle %s: %w", cycleID, err)
	}

	snap := &Snapshot{Records: records, CycleID: cycleID, UpdatedAt: t.now()}
	t.snapshot.Store(snap)
	now := t.now()
	t.lastRun.Store(&now)

	elapsed := t.now().Sub(start)
	metrics.CyclesTotal.Inc()
	metrics.CycleDurationSeconds.Observe(elapsed.Seconds())
	metrics.CriticalTrucks.Set(float64(Summarize(records).Critical))
	log.Printf("cycle=%s done trucks=%d dur=%dms", cycleID, len(records), elapsed.Milliseconds())

	t.notifyCritical(ctx, records)
	return nil
}

func (t *Tracker) computeBatch(ctx context.Context, cycleID string) ([]domain.TrackingRecord, error) {
	manifests, err := t.manifests.ListActiveManifests(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active manifests: %w", err)
	}
	if len(manifests) == 0 {
		return []domain.TrackingRecord{}, nil
	}

	positions, err := t.positions.ListPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}

	t.mu.RLock()
	index := t.index
	profiles := t.profiles
	historyData := t.historyData
	thresholds := t.thresholds
	t.mu.RUnlock()

	if index == nil {
		return nil, errors.New("geofence index not loaded")
	}

	resolver := &ContainmentResolver{Index: index, Profiles: profiles}
	engine := &WaitTimeEngine{
		Repo: t.repo,
		History: func(vehicleID string) (time.Time, bool) {
			ts, ok := historyData[vehicleID]
			return ts, ok
		},
		DepartedStatus: t.departedStatus,
		Now:            t.now,
	}

	// Per-truck evaluation is independent; fan out across a bounded worker
	// pool. The upsert itself is atomic per key at the storage layer.
	jobs := make(chan domain.ManifestEntry)
	var wg sync.WaitGroup
	var outMu sync.Mutex
	records := make([]domain.TrackingRecord, 0, len(manifests))

	for i := 0; i < t.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range jobs {
				pos, ok := positions[entry.VehicleID]
				if !ok {
					metrics.TrucksSkippedTotal.Inc()
					log.Printf("cycle=%s vehicle=%s skipped: no position this cycle", cycleID, entry.VehicleID)
					continue
				}

				rec := t.evaluate(ctx, resolver, engine, thresholds, entry, pos)

				if err := t.repo.Upsert(ctx, &rec); err != nil {
					// The in-memory record still reaches readers; the row is
					// retried naturally on the next cycle.
					metrics.PersistenceErrorsTotal.Inc()
					log.Printf("cycle=%s vehicle=%s manifest=%s upsert failed err=%v",
						cycleID, entry.VehicleID, entry.ManifestID, err)
				}

				metrics.TrucksProcessedTotal.Inc()
				outMu.Lock()
				records = append(records, rec)
				outMu.Unlock()
			}
		}()
	}

	for _, entry := range manifests {
		select {
		case jobs <- entry:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, fmt.Errorf("cycle aborted: %w", ctx.Err())
		}
	}
	close(jobs)
	wg.Wait()

	sort.Slice(records, func(i, j int) bool {
		if records[i].VehicleID != records[j].VehicleID {
			return records[i].VehicleID < records[j].VehicleID
		}
		return records[i].ManifestID < records[j].ManifestID
	})
	return records, nil
}

func (t *Tracker) evaluate(
	ctx context.Context,
	resolver *ContainmentResolver,
	engine *WaitTimeEngine,
	thresholds WaitThresholds,
	entry domain.ManifestEntry,
	pos domain.Position,
) domain.TrackingRecord {
	point := domain.Point{Lon: pos.Longitude, Lat: pos.Latitude}
	containment := resolver.Resolve(point, entry.DestinationID)
	pct, state := DeliveryProgress(containment)
	wait := engine.Evaluate(ctx, entry, containment, state, thresholds)

	return domain.TrackingRecord{
		VehicleID:      entry.VehicleID,
		ManifestID:     entry.ManifestID,
		DestinationID:  entry.DestinationID,
		Status:         entry.Status,
		Product:        entry.Product,
		Latitude:       pos.Latitude,
		Longitude:      pos.Longitude,
		SpeedKmh:       pos.SpeedKmh,
		Containment:    containment,
		ProgressPct:    pct,
		DeliveryState:  state,
		WaitStartedAt:  wait.WaitStartedAt,
		WaitMinutes:    wait.WaitMinutes,
		DischargeState: wait.DischargeState,
		AlertLevel:     wait.AlertLevel,
		ObservedAt:     pos.ObservedAt,
		LastUpdatedAt:  t.now(),
	}
}

func (t *Tracker) notifyCritical(ctx context.Context, records []domain.TrackingRecord) {
	if t.notifier == nil {
		return
	}
	critical := make([]domain.TrackingRecord, 0, 4)
	for _, r := range records {
		if r.AlertLevel == domain.AlertCritical {
			critical = append(critical, r)
		}
	}
	if len(critical) == 0 {
		return
	}
	if err := t.notifier.PublishCritical(ctx, critical); err != nil {
		log.Printf("critical alert publish failed err=%v", err)
	}
}

// AlertSummary aggregates the current snapshot by alert level.
func (t *Tracker) AlertSummary(ctx context.Context) (AlertSummary, error) {
	snap, err := t.Current(ctx)
	if err != nil {
		return AlertSummary{}, err
	}
	return Summarize(snap.Records), nil
}

// CriticalAlerts returns the current snapshot's critical trucks by
// descending priority.
func (t *Tracker) CriticalAlerts(ctx context.Context) ([]CriticalAlert, error) {
	snap, err := t.Current(ctx)
	if err != nil {
		return nil, err
	}
	return CriticalAlerts(snap.Records), nil
}

// Dashboard returns the full alert aggregation over the current snapshot.
func (t *Tracker) Dashboard(ctx context.Context) (AlertDashboard, error) {
	snap, err := t.Current(ctx)
	if err != nil {
		return AlertDashboard{}, err
	}
	return BuildAlertDashboard(snap.Records, t.now()), nil
}

// Stats summarizes the current snapshot for the operations dashboard.
type Stats struct {
	TotalTrucks       int            `json:"total_trucks"`
	InTransit         int            `json:"in_transit"`
	InDischarge       int            `json:"in_discharge"`
	CriticalAlerts    int            `json:"critical_alerts"`
	WarningAlerts     int            `json:"warning_alerts"`
	AverageProgress   float64        `json:"average_progress_pct"`
	GeofencePresence  map[string]int `json:"geofence_presence"`
	StateDistribution map[string]int `json:"state_distribution"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

func (t *Tracker) Stats(ctx context.Context) (Stats, error) {
	snap, err := t.Current(ctx)
	if err != nil {
		return Stats{}, err
	}

	s := Stats{
		TotalTrucks:       len(snap.Records),
		GeofencePresence:  make(map[string]int, 4),
		StateDistribution: make(map[string]int, 8),
		UpdatedAt:         snap.UpdatedAt,
	}
	var progressSum float64
	for _, r := range snap.Records {
		progressSum += r.ProgressPct
		s.StateDistribution[string(r.DeliveryState)]++
		switch r.DeliveryState {
		case domain.StateInTransit:
			s.InTransit++
		case domain.StateInUnloadZone, domain.StateUnloading, domain.StateUnloadConfirmed:
			s.InDischarge++
		}
		switch r.AlertLevel {
		case domain.AlertCritical:
			s.CriticalAlerts++
		case domain.AlertWarning:
			s.WarningAlerts++
		}
		for _, level := range domain.Levels() {
			if r.Containment.In(level) {
				s.GeofencePresence[level.String()]++
			}
		}
	}
	if len(snap.Records) > 0 {
		s.AverageProgress = progressSum / float64(len(snap.Records))
	}
	return s, nil
}

// Health reports component readiness for the liveness endpoint.
func (t *Tracker) Health() map[string]any {
	t.mu.RLock()
	index := t.index
	historyCount := len(t.historyData)
	profileCount := len(t.profiles)
	t.mu.RUnlock()

	h := map[string]any{
		"geofences_loaded": index != nil,
		"history_vehicles": historyCount,
		"destinations":     profileCount,
	}
	if index != nil {
		h["geofence_counts"] = index.Counts()
	}
	if s := t.snapshot.Load(); s != nil {
		h["snapshot_trucks"] = len(s.Records)
		h["snapshot_updated_at"] = s.UpdatedAt
		h["snapshot_fresh"] = t.now().Sub(s.UpdatedAt) < t.cacheTTL
	}
	if lr := t.lastRun.Load(); lr != nil {
		h["last_cycle_at"] = *lr
	}
	return h
}
