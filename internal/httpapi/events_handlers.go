package httpapi

import (
	"fmt"
	"net/http"

	"internlee-engine/internal/events"
	"internlee-engine/internal/logging"
)

type EventsHandler struct {
	Hub *events.Hub
	Log *logging.Logger
}

func (h EventsHandler) ServeSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, r, http.StatusInternalServerError, "stream_unsupported", "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := h.Hub.Subscribe()
	log := h.Log
	if log == nil {
		log = logging.Nop()
	}
	defer func() {
		h.Hub.Unsubscribe(ch)
		log.Debug("sse client disconnected", "subscribers", h.Hub.Subscribers())
	}()
	log.Debug("sse client connected", "subscribers", h.Hub.Subscribers())

	reqID := RequestIDFrom(r.Context())
	ping := events.MakeEvent(reqID, "ping", events.Version, nil)
	fmt.Fprintf(w, "event: message\ndata: %s\n\n", ping)
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
