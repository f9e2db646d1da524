package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"truck-tracking-service/internal/api/dto"
	"truck-tracking-service/internal/services"
)

type ConfigHandler struct {
	Tracker *services.Tracker
}

// Alerts reads or replaces the alert thresholds. Updates apply to
// subsequent cycles only; the current snapshot is not recomputed.
func (h *ConfigHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		th := h.Tracker.Thresholds()
		writeJSON(w, r, http.StatusOK, dto.ThresholdsPayload{
			AttentionHours: th.Attention.Hours(),
			WarningHours:   th.Warning.Hours(),
			CriticalHours:  th.Critical.Hours(),
		})

	case http.MethodPut:
		var req dto.ThresholdsPayload

		dec := json.NewDecoder(r.Body)
		defer r.Body.Close()
		dec.DisallowUnknownFields()

		if err := dec.Decode(&req); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid json body")
			return
		}
		if err := dec.Decode(&struct{}{}); err != io.EOF {
			writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
			return
		}

		th := services.WaitThresholds{
			Attention: time.Duration(req.AttentionHours * float64(time.Hour)),
			Warning:   time.Duration(req.WarningHours * float64(time.Hour)),
			Critical:  time.Duration(req.CriticalHours * float64(time.Hour)),
		}
		if err := h.Tracker.SetThresholds(th); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, r, http.StatusOK, req)

	default:
		w.Header().Set("Allow", "GET, PUT")
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	}
}
