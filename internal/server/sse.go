package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/filedrop/filedrop/internal/notify"
)

// handleEvents serves the live update stream. Each connected client gets a
// subscription to the change notifier; subscribed tags are forwarded as
// `data: <tag>` lines in publish order, interleaved with a keep-alive ping
// so intermediaries do not time out the connection. The subscription and
// the ping timer are torn down when the request context is cancelled.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.jsonError(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	sub := s.notifier.Subscribe(notify.EventFiles, notify.EventClipboard)
	defer s.notifier.Unsubscribe(sub)

	s.metrics.StreamClients.Inc()
	defer s.metrics.StreamClients.Dec()

	ticker := time.NewTicker(s.cfg.PingIntervalDuration())
	defer ticker.Stop()

	// Push headers out before the first event
	flusher.Flush()

	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", ev)
			flusher.Flush()

		case <-ticker.C:
			fmt.Fprintf(w, "data: %s\n\n", notify.EventPing)
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
