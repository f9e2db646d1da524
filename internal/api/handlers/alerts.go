package handlers

import (
	"log"
	"net/http"

	"truck-tracking-service/internal/services"
)

type AlertsHandler struct {
	Tracker *services.Tracker
}

func (h *AlertsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	summary, err := h.Tracker.AlertSummary(r.Context())
	if err != nil {
		log.Printf("alert summary failed: %v", err)
		writeError(w, r, http.StatusServiceUnavailable, "tracking data unavailable")
		return
	}
	writeJSON(w, r, http.StatusOK, summary)
}

func (h *AlertsHandler) Critical(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	alerts, err := h.Tracker.CriticalAlerts(r.Context())
	if err != nil {
		log.Printf("critical alerts failed: %v", err)
		writeError(w, r, http.StatusServiceUnavailable, "tracking data unavailable")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"critical_alerts": alerts})
}

func (h *AlertsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	dashboard, err := h.Tracker.Dashboard(r.Context())
	if err != nil {
		log.Printf("alert dashboard failed: %v", err)
		writeError(w, r, http.StatusServiceUnavailable, "tracking data unavailable")
		return
	}
	writeJSON(w, r, http.StatusOK, dashboard)
}
