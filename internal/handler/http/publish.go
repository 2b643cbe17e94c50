package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/fieldworks/realtime-service/internal/domain/apperr"
	"github.com/fieldworks/realtime-service/internal/service"
)

type PublishHandler struct {
	logger    *slog.Logger
	publisher service.Publisher
}

func NewPublishHandler(logger *slog.Logger, publisher service.Publisher) *PublishHandler {
	return &PublishHandler{logger: logger, publisher: publisher}
}

type publishResponse struct {
	Success    bool   `json:"success"`
	EventID    string `json:"eventId"`
	Recipients int    `json:"recipients"`
	Timestamp  int64  `json:"timestamp"`
}

func (h *PublishHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ident, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, apperr.ErrUnauthenticated)
		return
	}

	var req service.PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: malformed body: %w", apperr.ErrInvalidArgument, err))
		return
	}

	res, err := h.publisher.Publish(r.Context(), ident, req)
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Debug("event published",
		"event_id", res.EventID,
		"sender", ident.UserID,
		"recipients", res.Recipients,
	)

	writeJSON(w, http.StatusOK, publishResponse{
		Success:    true,
		EventID:    res.EventID,
		Recipients: res.Recipients,
		Timestamp:  res.OccurredAt,
	})
}
