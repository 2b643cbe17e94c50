package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fieldworks/realtime-service/config"
	"github.com/fieldworks/realtime-service/internal/domain/event"
	wsmarshaller "github.com/fieldworks/realtime-service/internal/handler/marshaller/ws"
	"github.com/fieldworks/realtime-service/internal/service"
)

// WSHandler is the WebSocket twin of the SSE stream for clients that want a
// bidirectional-capable transport. Delivery semantics are identical: same
// mailbox, same drain loop, ping control frames as heartbeat.
type WSHandler struct {
	logger    *slog.Logger
	deliverer service.Deliverer
	upgrader  websocket.Upgrader
	heartbeat time.Duration
	drainTick time.Duration
}

func NewWSHandler(logger *slog.Logger, deliverer service.Deliverer, cfg *config.Config) *WSHandler {
	return &WSHandler{
		logger:    logger,
		deliverer: deliverer,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict to dashboard origins once they are finalized
		},
		heartbeat: cfg.Stream.HeartbeatInterval,
		drainTick: cfg.Stream.DrainInterval,
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ident, ok := IdentityFrom(r.Context())
	if !ok {
		http.Error(w, "authentication context missing", http.StatusUnauthorized)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws upgrade failed", "err", err)
		return
	}
	defer ws.Close()

	conn, err := h.deliverer.Subscribe(r.Context(), ident.UserID)
	if err != nil {
		h.logger.Error("ws subscription rejected", "user_id", ident.UserID, "err", err)
		return
	}
	defer func() {
		h.deliverer.Unsubscribe(ident.UserID, conn.ID())
		conn.Close()
	}()

	l := h.logger.With("user_id", ident.UserID, "conn_id", conn.ID().String())
	l.Info("ws opened")

	welcome := event.New(event.TypeConnected, &connectedPayload{
		Ok:           true,
		ConnectionID: conn.ID().String(),
	}, "", event.PriorityNormal, time.Minute)
	if !h.send(ws, welcome, l) {
		return
	}

	heartbeatT := time.NewTicker(h.heartbeat)
	defer heartbeatT.Stop()
	drainT := time.NewTicker(h.drainTick)
	defer drainT.Stop()

	for {
		select {
		case <-conn.Done():
			l.Info("ws closed", "reason", r.Context().Err())
			return

		case <-heartbeatT.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				l.Warn("ws ping failed", "err", err)
				return
			}

		case <-conn.Wake():
			if !h.flushMailbox(ws, ident.UserID, l) {
				return
			}

		case <-drainT.C:
			if !h.flushMailbox(ws, ident.UserID, l) {
				return
			}
		}
	}
}

func (h *WSHandler) flushMailbox(ws *websocket.Conn, userID string, l *slog.Logger) bool {
	for _, ev := range h.deliverer.Drain(userID) {
		if !h.send(ws, ev, l) {
			return false
		}
	}
	return true
}

func (h *WSHandler) send(ws *websocket.Conn, ev *event.Event, l *slog.Logger) bool {
	data, err := wsmarshaller.MarshallDeliveryEvent(ev)
	if err != nil {
		l.Error("failed to marshal ws event", "event_id", ev.ID, "err", err)
		return true
	}
	if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
		l.Warn("ws send failed", "err", err)
		return false
	}
	return true
}
