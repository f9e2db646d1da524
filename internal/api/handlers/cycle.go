package handlers

import (
	"errors"
	"net/http"

	"truck-tracking-service/internal/services"
)

type CycleHandler struct {
	Tracker *services.Tracker
}

// Trigger starts a processing cycle. By default it returns immediately
// with 202 while the cycle runs in the background; ?wait=true blocks
// until the cycle finishes and reports its outcome.
func (h *CycleHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	done := h.Tracker.TriggerCycle(r.Context())

	if r.URL.Query().Get("wait") != "true" {
		writeJSON(w, r, http.StatusAccepted, map[string]string{"status": "cycle started"})
		return
	}

	select {
	case err := <-done:
		switch {
		case errors.Is(err, services.ErrCycleInProgress):
			writeError(w, r, http.StatusConflict, err.Error())
		case err != nil:
			writeError(w, r, http.StatusBadGateway, "cycle failed: "+err.Error())
		default:
			writeJSON(w, r, http.StatusOK, map[string]string{"status": "cycle completed"})
		}
	case <-r.Context().Done():
		writeError(w, r, http.StatusRequestTimeout, "client gave up waiting for cycle")
	}
}
