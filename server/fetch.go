package server

import (
	"math"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/fiolab/fio-fetcher/fetcher"
)

// handleTriggerFetch handles POST /api/v1/fetch. Rejections are regular
// answers, not errors; the caller is told exactly why and for how long.
func (s *Server) handleTriggerFetch(w http.ResponseWriter, r *http.Request) {
	outcome := s.trigger.RequestRun(r.Context())

	switch outcome.Status {
	case fetcher.OutcomeStarted:
		writeJSON(w, http.StatusAccepted, map[string]any{
			"status":  "started",
			"message": "fetch started in background, connect to /api/v1/ws for progress",
		})
	case fetcher.OutcomeRateLimited:
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"status":              "rate_limited",
			"retry_after_seconds": int(math.Ceil(outcome.RetryAfter.Seconds())),
		})
	case fetcher.OutcomeAlreadyRunning:
		writeJSON(w, http.StatusConflict, map[string]any{
			"status":  "already_running",
			"message": "fetch already in progress",
		})
	default:
		writeJSONError(w, http.StatusInternalServerError, "server_error", "unknown run outcome")
	}
}

var upgrader = websocket.Upgrader{
	// The UI is served from the same origin; nothing sensitive crosses here anyway.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleWebSocket streams every broadcaster event to the client as JSON.
// Delivery is best-effort; a closed or stuck peer only ends its own stream.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sub := s.bc.Subscribe()
	defer s.bc.Unsubscribe(sub)

	// Reads are discarded; they only surface the peer closing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case event, ok := <-sub.C:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				s.log.Debug("websocket write failed", zap.Error(err))
				return
			}
		}
	}
}
