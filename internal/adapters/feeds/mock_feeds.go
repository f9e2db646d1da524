package feeds

import (
	"context"
	"sync/atomic"

	"truck-tracking-service/internal/domain"
)

// MockPositionFeed serves a fixed position set and counts calls, so tests
// can assert a cached read never touches the feed.
type MockPositionFeed struct {
	Positions map[string]domain.Position
	Err       error
	calls     atomic.Int64
}

func (m *MockPositionFeed) ListPositions(ctx context.Context) (map[string]domain.Position, error) {
	m.calls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Positions, nil
}

func (m *MockPositionFeed) Calls() int { return int(m.calls.Load()) }

// MockManifestFeed serves a fixed manifest set and counts calls.
type MockManifestFeed struct {
	Entries []domain.ManifestEntry
	Err     error
	calls   atomic.Int64
}

func (m *MockManifestFeed) ListActiveManifests(ctx context.Context) ([]domain.ManifestEntry, error) {
	m.calls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Entries, nil
}

func (m *MockManifestFeed) Calls() int { return int(m.calls.Load()) }
