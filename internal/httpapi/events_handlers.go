package httpapi

import (
	"fmt"
	"net/http"

	"jobagent-engine/internal/events"
)

type EventsHandler struct {
	Hub    *events.Hub
	Status *events.Status
}

func (h EventsHandler) ServeSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, r, http.StatusInternalServerError, CodeStreamUnsupported, "Streaming unsupported")
		return
	}

	ch, cancel := h.Hub.Subscribe()
	defer cancel()

	// current snapshot first so late subscribers don't wait for the next change
	reqID := RequestIDFrom(r.Context())
	fmt.Fprintf(w, "event: message\ndata: %s\n\n", events.MakeEvent(reqID, events.TypeProgress, h.Status.Snapshot()))
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
