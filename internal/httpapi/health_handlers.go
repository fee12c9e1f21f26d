package httpapi

import (
	"net/http"
	"time"

	"jobagent-engine/internal/events"
)

type HealthHandler struct {
	Status *events.Status
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"active": h.Status.Snapshot().Active,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
