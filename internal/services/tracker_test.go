package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"truck-tracking-service/internal/adapters/feeds"
	"truck-tracking-service/internal/domain"
	"truck-tracking-service/internal/ports"
)

type staticGeofenceSource struct {
	rows []ports.GeofenceRow
	err  error
}

func (s *staticGeofenceSource) ListGeofences(ctx context.Context) ([]ports.GeofenceRow, error) {
	return s.rows, s.err
}

// movableClock lets tests advance time between calls.
type movableClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *movableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *movableClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func testGeofenceRows() []ports.GeofenceRow {
	return []ports.GeofenceRow{
		{Level: "CIUDADES", Name: "SANTA CRUZ", Points: "-17.60 -63.35, -17.60 -62.95, -17.95 -62.95, -17.95 -63.35"},
		{Level: "CBN", Name: "PLANTA SANTA CRUZ", Points: "-17.770 -63.200, -17.770 -63.170, -17.800 -63.170, -17.800 -63.200"},
		{Level: "TRACK AND TRACE", Name: "TYT - PLANTA SANTA CRUZ", Points: "-17.778 -63.192, -17.778 -63.180, -17.790 -63.180, -17.790 -63.192"},
		{Level: "DOCKS", Name: "DOCK - 7 - PLANTA SANTA CRUZ", Points: "-17.781 -63.188, -17.781 -63.184, -17.785 -63.184, -17.785 -63.188"},
	}
}

func newTestTracker(
	t *testing.T,
	positions *feeds.MockPositionFeed,
	manifests *feeds.MockManifestFeed,
	repo *mockTrackingRepo,
	clock *movableClock,
) *Tracker {
	t.Helper()

	tracker := NewTracker(
		positions,
		manifests,
		repo,
		&staticGeofenceSource{rows: testGeofenceRows()},
		nil,
		nil,
		TrackerConfig{CacheTTL: 300 * time.Second, Workers: 2},
	)
	tracker.now = clock.Now

	if err := tracker.ReloadGeofences(context.Background()); err != nil {
		t.Fatalf("reload geofences: %v", err)
	}
	return tracker
}

func TestRunCycleEndToEnd(t *testing.T) {
	clock := &movableClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}

	positions := &feeds.MockPositionFeed{Positions: map[string]domain.Position{
		// Parked inside the dock, engine off.
		"ABC123": {VehicleID: "ABC123", Latitude: -17.783, Longitude: -63.186, SpeedKmh: 0, ObservedAt: clock.Now()},
		// Rolling through the city.
		"DEF456": {VehicleID: "DEF456", Latitude: -17.70, Longitude: -63.10, SpeedKmh: 60, ObservedAt: clock.Now()},
		// Outside every geofence.
		"GHI789": {VehicleID: "GHI789", Latitude: -19.0, Longitude: -65.0, SpeedKmh: 80, ObservedAt: clock.Now()},
	}}
	manifests := &feeds.MockManifestFeed{Entries: []domain.ManifestEntry{
		{VehicleID: "ABC123", ManifestID: "M1", DestinationID: "Cerveceria SCZ", Status: "SALIDA", Product: "CERVEZA PREMIUM"},
		{VehicleID: "DEF456", ManifestID: "M2", DestinationID: "Cerveceria SCZ", Status: "SALIDA"},
		{VehicleID: "GHI789", ManifestID: "M3", DestinationID: "Cerveceria SCZ", Status: "SALIDA"},
	}}
	repo := newMockTrackingRepo()

	tracker := newTestTracker(t, positions, manifests, repo, clock)
	if err := tracker.RunCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}

	snap := tracker.snapshot.Load()
	if snap == nil || len(snap.Records) != 3 {
		t.Fatalf("expected 3 records in snapshot, got %+v", snap)
	}

	// Sorted by vehicle ID.
	docked := snap.Records[0]
	if docked.VehicleID != "ABC123" {
		t.Fatalf("expected ABC123 first, got %s", docked.VehicleID)
	}
	if docked.ProgressPct != 100 || docked.DeliveryState != domain.StateUnloadConfirmed {
		t.Fatalf("docked truck progress=%v state=%s", docked.ProgressPct, docked.DeliveryState)
	}
	if docked.DischargeState != domain.DischargeAtDocks {
		t.Fatalf("docked truck discharge state = %s", docked.DischargeState)
	}
	if docked.WaitStartedAt == nil || !docked.WaitStartedAt.Equal(clock.Now()) {
		t.Fatalf("docked truck wait start = %v", docked.WaitStartedAt)
	}

	rolling := snap.Records[1]
	if rolling.ProgressPct != 25 || rolling.DeliveryState != domain.StateInCity {
		t.Fatalf("rolling truck progress=%v state=%s", rolling.ProgressPct, rolling.DeliveryState)
	}
	if rolling.WaitMinutes != 0 || rolling.AlertLevel != domain.AlertNormal {
		t.Fatalf("rolling truck wait=%d alert=%s", rolling.WaitMinutes, rolling.AlertLevel)
	}

	far := snap.Records[2]
	if far.ProgressPct != 0 || far.DeliveryState != domain.StateInTransit {
		t.Fatalf("distant truck progress=%v state=%s", far.ProgressPct, far.DeliveryState)
	}

	// All three were persisted.
	if len(repo.records) != 3 {
		t.Fatalf("expected 3 upserts, got %d", len(repo.records))
	}
}

func TestCycleWaitAccumulation(t *testing.T) {
	clock := &movableClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}

	positions := &feeds.MockPositionFeed{Positions: map[string]domain.Position{
		"ABC123": {VehicleID: "ABC123", Latitude: -17.783, Longitude: -63.186, SpeedKmh: 0},
	}}
	manifests := &feeds.MockManifestFeed{Entries: []domain.ManifestEntry{
		{VehicleID: "ABC123", ManifestID: "M1", DestinationID: "Cerveceria SCZ", Status: "SALIDA"},
	}}
	repo := newMockTrackingRepo()

	tracker := newTestTracker(t, positions, manifests, repo, clock)
	if err := tracker.RunCycle(context.Background()); err != nil {
		t.Fatalf("first cycle: %v", err)
	}

	// Five hours later the truck is still at the dock: the persisted start
	// must anchor the wait, crossing the attention threshold.
	clock.Advance(5 * time.Hour)
	if err := tracker.RunCycle(context.Background()); err != nil {
		t.Fatalf("second cycle: %v", err)
	}

	rec := tracker.snapshot.Load().Records[0]
	if rec.WaitMinutes != 300 {
		t.Fatalf("wait minutes = %d, want 300", rec.WaitMinutes)
	}
	if rec.AlertLevel != domain.AlertAttention {
		t.Fatalf("alert level = %s, want ATTENTION", rec.AlertLevel)
	}

	// 9h total: past the warning threshold.
	clock.Advance(4 * time.Hour)
	if err := tracker.RunCycle(context.Background()); err != nil {
		t.Fatalf("third cycle: %v", err)
	}
	rec = tracker.snapshot.Load().Records[0]
	if rec.WaitMinutes != 540 {
		t.Fatalf("wait minutes = %d, want 540", rec.WaitMinutes)
	}
	if rec.AlertLevel != domain.AlertWarning {
		t.Fatalf("alert level = %s, want WARNING", rec.AlertLevel)
	}

	// 49h total: critical, and the wait start never moved.
	clock.Advance(40 * time.Hour)
	if err := tracker.RunCycle(context.Background()); err != nil {
		t.Fatalf("fourth cycle: %v", err)
	}
	rec = tracker.snapshot.Load().Records[0]
	if rec.AlertLevel != domain.AlertCritical {
		t.Fatalf("alert level = %s, want CRITICAL", rec.AlertLevel)
	}
	start := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	if rec.WaitStartedAt == nil || !rec.WaitStartedAt.Equal(start) {
		t.Fatalf("wait start = %v, want %v", rec.WaitStartedAt, start)
	}
}

func TestCurrentServesCachedSnapshot(t *testing.T) {
	clock := &movableClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}

	positions := &feeds.MockPositionFeed{Positions: map[string]domain.Position{
		"ABC123": {VehicleID: "ABC123", Latitude: -17.70, Longitude: -63.10, SpeedKmh: 60},
	}}
	manifests := &feeds.MockManifestFeed{Entries: []domain.ManifestEntry{
		{VehicleID: "ABC123", ManifestID: "M1", DestinationID: "Cerveceria SCZ", Status: "SALIDA"},
	}}
	repo := newMockTrackingRepo()
	tracker := newTestTracker(t, positions, manifests, repo, clock)

	first, err := tracker.Current(context.Background())
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	if manifests.Calls() != 1 || positions.Calls() != 1 {
		t.Fatalf("first read should run one cycle, calls=%d/%d", manifests.Calls(), positions.Calls())
	}

	// Within the TTL: identical snapshot, no feed traffic.
	clock.Advance(100 * time.Second)
	second, err := tracker.Current(context.Background())
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if second != first {
		t.Fatal("cached read must return the same snapshot")
	}
	if manifests.Calls() != 1 || positions.Calls() != 1 {
		t.Fatalf("cached read must not touch the feeds, calls=%d/%d", manifests.Calls(), positions.Calls())
	}

	// Past the TTL: a new cycle runs.
	clock.Advance(400 * time.Second)
	third, err := tracker.Current(context.Background())
	if err != nil {
		t.Fatalf("third read: %v", err)
	}
	if third == first {
		t.Fatal("expired read must produce a fresh snapshot")
	}
	if manifests.Calls() != 2 {
		t.Fatalf("expired read should run a cycle, calls=%d", manifests.Calls())
	}
}

func TestCurrentServesStaleOnFailure(t *testing.T) {
	clock := &movableClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}

	positions := &feeds.MockPositionFeed{Positions: map[string]domain.Position{
		"ABC123": {VehicleID: "ABC123", Latitude: -17.70, Longitude: -63.10, SpeedKmh: 60},
	}}
	manifests := &feeds.MockManifestFeed{Entries: []domain.ManifestEntry{
		{VehicleID: "ABC123", ManifestID: "M1", DestinationID: "Cerveceria SCZ", Status: "SALIDA"},
	}}
	repo := newMockTrackingRepo()
	tracker := newTestTracker(t, positions, manifests, repo, clock)

	first, err := tracker.Current(context.Background())
	if err != nil {
		t.Fatalf("first read: %v", err)
	}

	// Feed breaks after the snapshot expires: readers get the stale batch.
	positions.Err = errors.New("vendor API down")
	clock.Advance(400 * time.Second)

	stale, err := tracker.Current(context.Background())
	if err != nil {
		t.Fatalf("stale read should not fail: %v", err)
	}
	if stale != first {
		t.Fatal("expected the previous snapshot while the feed is down")
	}
}

func TestCurrentFailsWithNoSnapshotAtAll(t *testing.T) {
	clock := &movableClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}

	positions := &feeds.MockPositionFeed{Err: errors.New("vendor API down")}
	manifests := &feeds.MockManifestFeed{Entries: []domain.ManifestEntry{
		{VehicleID: "ABC123", ManifestID: "M1", Status: "SALIDA"},
	}}
	tracker := newTestTracker(t, positions, manifests, newMockTrackingRepo(), clock)

	if _, err := tracker.Current(context.Background()); err == nil {
		t.Fatal("expected an error when no snapshot has ever been built")
	}
}

// slowManifestFeed delays each listing so a triggered cycle outlives the
// caller, and honors context cancellation like a real database client.
type slowManifestFeed struct {
	entries []domain.ManifestEntry
	delay   time.Duration
}

func (s *slowManifestFeed) ListActiveManifests(ctx context.Context) ([]domain.ManifestEntry, error) {
	select {
	case <-time.After(s.delay):
		return s.entries, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestTriggerCycleOutlivesCaller(t *testing.T) {
	clock := &movableClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}

	positions := &feeds.MockPositionFeed{Positions: map[string]domain.Position{
		"ABC123": {VehicleID: "ABC123", Latitude: -17.70, Longitude: -63.10, SpeedKmh: 60},
	}}
	manifests := &slowManifestFeed{
		entries: []domain.ManifestEntry{
			{VehicleID: "ABC123", ManifestID: "M1", DestinationID: "Cerveceria SCZ", Status: "SALIDA"},
		},
		delay: 200 * time.Millisecond,
	}
	repo := newMockTrackingRepo()

	tracker := NewTracker(
		positions,
		manifests,
		repo,
		&staticGeofenceSource{rows: testGeofenceRows()},
		nil,
		nil,
		TrackerConfig{CacheTTL: 300 * time.Second, Workers: 2},
	)
	tracker.now = clock.Now
	if err := tracker.ReloadGeofences(context.Background()); err != nil {
		t.Fatalf("reload geofences: %v", err)
	}

	// Cancel right after triggering, as net/http does with the request
	// context the moment the handler returns.
	ctx, cancel := context.WithCancel(context.Background())
	done := tracker.TriggerCycle(ctx)
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("triggered cycle must survive the caller's cancellation: %v", err)
	}

	snap := tracker.snapshot.Load()
	if snap == nil || len(snap.Records) != 1 {
		t.Fatalf("expected a published snapshot with 1 record, got %+v", snap)
	}
	if len(repo.records) != 1 {
		t.Fatalf("expected the record to be persisted, got %d", len(repo.records))
	}
}

func TestRunCycleMutualExclusion(t *testing.T) {
	clock := &movableClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}

	tracker := newTestTracker(t,
		&feeds.MockPositionFeed{Positions: map[string]domain.Position{}},
		&feeds.MockManifestFeed{},
		newMockTrackingRepo(),
		clock,
	)

	tracker.cycleMu.Lock()
	err := tracker.RunCycle(context.Background())
	tracker.cycleMu.Unlock()

	if !errors.Is(err, ErrCycleInProgress) {
		t.Fatalf("expected ErrCycleInProgress, got %v", err)
	}
}

func TestRunCycleSkipsVehiclesWithoutPosition(t *testing.T) {
	clock := &movableClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}

	positions := &feeds.MockPositionFeed{Positions: map[string]domain.Position{
		"ABC123": {VehicleID: "ABC123", Latitude: -17.70, Longitude: -63.10, SpeedKmh: 60},
	}}
	manifests := &feeds.MockManifestFeed{Entries: []domain.ManifestEntry{
		{VehicleID: "ABC123", ManifestID: "M1", DestinationID: "Cerveceria SCZ", Status: "SALIDA"},
		{VehicleID: "NOPOS1", ManifestID: "M2", DestinationID: "Cerveceria SCZ", Status: "SALIDA"},
	}}
	repo := newMockTrackingRepo()

	tracker := newTestTracker(t, positions, manifests, repo, clock)
	if err := tracker.RunCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}

	snap := tracker.snapshot.Load()
	if len(snap.Records) != 1 || snap.Records[0].VehicleID != "ABC123" {
		t.Fatalf("expected only ABC123 in the batch, got %+v", snap.Records)
	}
}

func TestRunCycleKeepsRecordOnUpsertFailure(t *testing.T) {
	clock := &movableClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}

	positions := &feeds.MockPositionFeed{Positions: map[string]domain.Position{
		"ABC123": {VehicleID: "ABC123", Latitude: -17.70, Longitude: -63.10, SpeedKmh: 60},
	}}
	manifests := &feeds.MockManifestFeed{Entries: []domain.ManifestEntry{
		{VehicleID: "ABC123", ManifestID: "M1", DestinationID: "Cerveceria SCZ", Status: "SALIDA"},
	}}
	repo := newMockTrackingRepo()
	repo.upsertErr = errors.New("disk full")

	tracker := newTestTracker(t, positions, manifests, repo, clock)
	if err := tracker.RunCycle(context.Background()); err != nil {
		t.Fatalf("persistence failure must not fail the cycle: %v", err)
	}

	snap := tracker.snapshot.Load()
	if len(snap.Records) != 1 {
		t.Fatalf("record must still reach readers, got %d", len(snap.Records))
	}
}

func TestSetThresholdsValidation(t *testing.T) {
	clock := &movableClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	tracker := newTestTracker(t,
		&feeds.MockPositionFeed{Positions: map[string]domain.Position{}},
		&feeds.MockManifestFeed{},
		newMockTrackingRepo(),
		clock,
	)

	bad := []WaitThresholds{
		{Attention: 0, Warning: time.Hour, Critical: 2 * time.Hour},
		{Attention: 2 * time.Hour, Warning: time.Hour, Critical: 3 * time.Hour},
		{Attention: time.Hour, Warning: 2 * time.Hour, Critical: 2 * time.Hour},
	}
	for _, th := range bad {
		if err := tracker.SetThresholds(th); err == nil {
			t.Errorf("expected validation error for %+v", th)
		}
	}

	good := WaitThresholds{Attention: 2 * time.Hour, Warning: 6 * time.Hour, Critical: 24 * time.Hour}
	if err := tracker.SetThresholds(good); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := tracker.Thresholds(); got != good {
		t.Fatalf("thresholds = %+v, want %+v", got, good)
	}
}

func TestStats(t *testing.T) {
	clock := &movableClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}

	positions := &feeds.MockPositionFeed{Positions: map[string]domain.Position{
		"ABC123": {VehicleID: "ABC123", Latitude: -17.783, Longitude: -63.186},
		"DEF456": {VehicleID: "DEF456", Latitude: -19.0, Longitude: -65.0, SpeedKmh: 80},
	}}
	manifests := &feeds.MockManifestFeed{Entries: []domain.ManifestEntry{
		{VehicleID: "ABC123", ManifestID: "M1", DestinationID: "Cerveceria SCZ", Status: "SALIDA"},
		{VehicleID: "DEF456", ManifestID: "M2", DestinationID: "Cerveceria SCZ", Status: "SALIDA"},
	}}
	tracker := newTestTracker(t, positions, manifests, newMockTrackingRepo(), clock)

	stats, err := tracker.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalTrucks != 2 {
		t.Fatalf("total trucks = %d", stats.TotalTrucks)
	}
	if stats.InTransit != 1 || stats.InDischarge != 1 {
		t.Fatalf("in transit = %d, in discharge = %d", stats.InTransit, stats.InDischarge)
	}
	// (100 + 0) / 2.
	if stats.AverageProgress != 50 {
		t.Fatalf("average progress = %v", stats.AverageProgress)
	}
	if stats.GeofencePresence[domain.LevelDocks.String()] != 1 {
		t.Fatalf("geofence presence = %v", stats.GeofencePresence)
	}
}
