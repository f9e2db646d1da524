package handlers

import (
	"log"
	"net/http"

	"truck-tracking-service/internal/api/dto"
	"truck-tracking-service/internal/services"
)

type StatusHandler struct {
	Tracker *services.Tracker
}

// List serves the current tracking snapshot, running a processing cycle
// first only when the cache has expired.
func (h *StatusHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	snap, err := h.Tracker.Current(r.Context())
	if err != nil {
		log.Printf("snapshot read failed: %v", err)
		writeError(w, r, http.StatusServiceUnavailable, "tracking data unavailable")
		return
	}

	res := dto.ListTrucksResponse{
		Trucks:    make([]dto.TrackingRow, 0, len(snap.Records)),
		CycleID:   snap.CycleID,
		UpdatedAt: snap.UpdatedAt,
	}
	for _, rec := range snap.Records {
		res.Trucks = append(res.Trucks, dto.FromRecord(rec))
	}

	writeJSON(w, r, http.StatusOK, res)
}

// Stats serves the operations dashboard aggregates.
func (h *StatusHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	stats, err := h.Tracker.Stats(r.Context())
	if err != nil {
		log.Printf("stats read failed: %v", err)
		writeError(w, r, http.StatusServiceUnavailable, "tracking data unavailable")
		return
	}

	writeJSON(w, r, http.StatusOK, stats)
}
