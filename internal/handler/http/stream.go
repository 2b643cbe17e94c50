package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/fieldworks/realtime-service/config"
	"github.com/fieldworks/realtime-service/internal/domain/event"
	ssemarshaller "github.com/fieldworks/realtime-service/internal/handler/marshaller/sse"
	"github.com/fieldworks/realtime-service/internal/service"
)

// connectedPayload is the handshake frame confirming the stream is live.
type connectedPayload struct {
	Ok           bool   `json:"ok"`
	ConnectionID string `json:"connection_id"`
}

// StreamHandler serves the long-lived SSE delivery stream: a connected
// frame up front, drained events as data frames, heartbeat comments in
// between. Per connection it owns exactly two tickers, both stopped on the
// single exit path.
type StreamHandler struct {
	logger    *slog.Logger
	deliverer service.Deliverer
	heartbeat time.Duration
	drainTick time.Duration
}

func NewStreamHandler(logger *slog.Logger, deliverer service.Deliverer, cfg *config.Config) *StreamHandler {
	return &StreamHandler{
		logger:    logger,
		deliverer: deliverer,
		heartbeat: cfg.Stream.HeartbeatInterval,
		drainTick: cfg.Stream.DrainInterval,
	}
}

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ident, ok := IdentityFrom(r.Context())
	if !ok {
		http.Error(w, "authentication context missing", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	conn, err := h.deliverer.Subscribe(r.Context(), ident.UserID)
	if err != nil {
		h.logger.Error("stream subscription rejected", "user_id", ident.UserID, "err", err)
		http.Error(w, "failed to establish stream", http.StatusInternalServerError)
		return
	}
	defer func() {
		h.deliverer.Unsubscribe(ident.UserID, conn.ID())
		conn.Close()
	}()

	l := h.logger.With(
		slog.String("user_id", ident.UserID),
		slog.String("conn_id", conn.ID().String()),
	)
	l.Info("stream opened")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	welcome := event.New(event.TypeConnected, &connectedPayload{
		Ok:           true,
		ConnectionID: conn.ID().String(),
	}, "", event.PriorityNormal, time.Minute)
	h.writeFrame(w, welcome, l)
	flusher.Flush()

	heartbeatT := time.NewTicker(h.heartbeat)
	defer heartbeatT.Stop()
	drainT := time.NewTicker(h.drainTick)
	defer drainT.Stop()

	for {
		select {
		case <-conn.Done():
			// Client disconnect, network failure or hub shutdown. The only
			// exit path; both tickers stop via the defers above.
			l.Info("stream closed", "reason", r.Context().Err())
			return

		case <-heartbeatT.C:
			// Write errors are swallowed: a dead transport cancels the
			// request context and the Done branch cleans up.
			_, _ = w.Write(ssemarshaller.Heartbeat(time.Now()))
			flusher.Flush()

		case <-conn.Wake():
			h.flushMailbox(w, flusher, ident.UserID, l)

		case <-drainT.C:
			h.flushMailbox(w, flusher, ident.UserID, l)
		}
	}
}

func (h *StreamHandler) flushMailbox(w http.ResponseWriter, flusher http.Flusher, userID string, l *slog.Logger) {
	events := h.deliverer.Drain(userID)
	if len(events) == 0 {
		return
	}
	for _, ev := range events {
		h.writeFrame(w, ev, l)
	}
	flusher.Flush()
	l.Debug("events pushed to wire", "count", len(events))
}

func (h *StreamHandler) writeFrame(w http.ResponseWriter, ev *event.Event, l *slog.Logger) {
	frame, err := ssemarshaller.Frame(ev)
	if err != nil {
		l.Error("failed to marshal event", "event_id", ev.ID, "err", err)
		return
	}
	_, _ = w.Write(frame)
}
