package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/atendai/livechat-console/internal/session"
	"github.com/atendai/livechat-console/pkg/logger"
	"github.com/atendai/livechat-console/pkg/metrics"
)

// StreamHandler pushes session snapshots over SSE so the console UI renders
// the reconciled state without polling.
type StreamHandler struct {
	manager *session.Manager
	logger  *logger.Logger
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(manager *session.Manager, log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		manager: manager,
		logger:  log,
	}
}

// Stream handles GET /api/v1/session/stream
//
// Emits a `state` event with the full snapshot immediately, then after every
// observable change, coalesced; plus periodic heartbeats to keep proxies
// from closing the connection.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	metrics.StateStreamsActive.Inc()
	defer metrics.StateStreamsActive.Dec()

	s := resolveSession(h.manager, r)

	sendState := func() {
		data, err := json.Marshal(s.Snapshot())
		if err != nil {
			h.logger.Error("failed to marshal snapshot")
			return
		}
		fmt.Fprintf(w, "event: state\ndata: %s\n\n", data)
		flusher.Flush()
	}

	sendState()

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.Updates():
			sendState()
		case <-heartbeat.C:
			fmt.Fprintf(w, "event: heartbeat\ndata: {\"ts\":%q}\n\n", time.Now().Format(time.RFC3339))
			flusher.Flush()
		}
	}
}
