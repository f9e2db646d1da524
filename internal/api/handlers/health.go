package handlers

import (
	"net/http"

	"truck-tracking-service/internal/services"
)

type HealthHandler struct {
	Tracker *services.Tracker
	Ping    func() error
}

// Check reports service liveness plus engine readiness: geofence counts,
// last cycle time and snapshot size, and database reachability.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	res := h.Tracker.Health()
	res["status"] = "ok"

	status := http.StatusOK
	if h.Ping != nil {
		if err := h.Ping(); err != nil {
			res["status"] = "degraded"
			res["database"] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			res["database"] = "ok"
		}
	}

	writeJSON(w, r, status, res)
}
