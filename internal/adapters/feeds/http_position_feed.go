package feeds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"truck-tracking-service/internal/domain"
	"truck-tracking-service/internal/platform/obs"
)

// HTTPPositionFeed pulls last-known vehicle positions from the fleet GPS
// vendor's REST API.
type HTTPPositionFeed struct {
	baseURL string
	token   string
	session *http.Client
}

func NewHTTPPositionFeed(baseURL, token string) (*HTTPPositionFeed, error) {
	if baseURL == "" {
		return nil, errors.New("position feed: baseURL is required")
	}
	if token == "" {
		return nil, errors.New("position feed: token is required")
	}
	return &HTTPPositionFeed{
		baseURL: baseURL,
		token:   token,
		session: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// vehicleDTO mirrors the vendor payload of the all-vehicles endpoint.
type vehicleDTO struct {
	UnitID    string  `json:"id_unidad"`
	Latitude  float64 `json:"latitud"`
	Longitude float64 `json:"longitud"`
	SpeedKmh  float64 `json:"velocidad_kmh"`
	MovedAt   string  `json:"tiempoMovimientoFormatted"`
}

// ListPositions returns current positions keyed by vehicle id. Entries with
// an empty unit id or unparseable coordinates are dropped; the feed is best
// effort.
func (f *HTTPPositionFeed) ListPositions(ctx context.Context) (_ map[string]domain.Position, err error) {
	defer obs.Time(ctx, "positions.ListPositions")(&err)

	resp, err := f.doWithRetry(ctx, func() (*http.Request, error) {
		return f.newRequest(ctx, f.baseURL+"/ultimaubicaciontodos")
	})
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	defer resp.Body.Close()

	var vehicles []vehicleDTO
	if err := json.NewDecoder(resp.Body).Decode(&vehicles); err != nil {
		return nil, fmt.Errorf("list positions: decode response: %w", err)
	}

	now := time.Now()
	out := make(map[string]domain.Position, len(vehicles))
	for _, v := range vehicles {
		if v.UnitID == "" {
			continue
		}
		observedAt := now
		if ts, perr := time.Parse("2006-01-02 15:04:05", v.MovedAt); perr == nil {
			observedAt = ts
		}
		out[v.UnitID] = domain.Position{
			VehicleID:  v.UnitID,
			Latitude:   v.Latitude,
			Longitude:  v.Longitude,
			SpeedKmh:   v.SpeedKmh,
			ObservedAt: observedAt,
		}
	}
	return out, nil
}

func (f *HTTPPositionFeed) newRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("token", f.token)
	req.Header.Set("Accept", "application/json")
	return req, nil
}
