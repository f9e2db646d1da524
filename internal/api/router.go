package api

import (
	"net/http"

	"truck-tracking-service/internal/api/handlers"
	"truck-tracking-service/internal/platform/metrics"
	"truck-tracking-service/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(tracker *services.Tracker, ping func() error) http.Handler {
	mux := http.NewServeMux()

	healthHandler := &handlers.HealthHandler{Tracker: tracker, Ping: ping}
	statusHandler := &handlers.StatusHandler{Tracker: tracker}
	alertsHandler := &handlers.AlertsHandler{Tracker: tracker}
	configHandler := &handlers.ConfigHandler{Tracker: tracker}
	cycleHandler := &handlers.CycleHandler{Tracker: tracker}

	mux.HandleFunc("/health", healthHandler.Check)
	mux.HandleFunc("/trucks", statusHandler.List)
	mux.HandleFunc("/stats", statusHandler.Stats)
	mux.HandleFunc("/alerts/summary", alertsHandler.Summary)
	mux.HandleFunc("/alerts/critical", alertsHandler.Critical)
	mux.HandleFunc("/alerts/dashboard", alertsHandler.Dashboard)
	mux.HandleFunc("/config/alerts", configHandler.Alerts)
	mux.HandleFunc("/cycle", cycleHandler.Trigger)
	mux.Handle("/metrics", metrics.Handler())

	return loggingMiddleware(mux)
}
