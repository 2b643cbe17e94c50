package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fieldworks/realtime-service/internal/adapter/bus"
	"github.com/fieldworks/realtime-service/internal/auth"
	"github.com/fieldworks/realtime-service/internal/domain/apperr"
	"github.com/fieldworks/realtime-service/internal/domain/presence"
)

// Presencer exposes presence reads and the single-writer status update.
type Presencer interface {
	SetStatus(ctx context.Context, ident auth.Identity, status string) (presence.Record, error)
	Query(ctx context.Context, userIDs []string) ([]presence.Record, int)
}

type PresenceService struct {
	store      presence.Storer
	dispatcher bus.Dispatcher
	logger     *slog.Logger
}

func NewPresenceService(store presence.Storer, dispatcher bus.Dispatcher, logger *slog.Logger) *PresenceService {
	return &PresenceService{store: store, dispatcher: dispatcher, logger: logger}
}

// SetStatus updates the caller's own record. An invalid status leaves any
// existing record untouched. Accepted changes are announced on the bus so
// connected clients see presence move in real time.
func (s *PresenceService) SetStatus(ctx context.Context, ident auth.Identity, status string) (presence.Record, error) {
	parsed, err := presence.ParseStatus(status)
	if err != nil {
		return presence.Record{}, fmt.Errorf("%w: %w", apperr.ErrInvalidArgument, err)
	}

	rec := s.store.Set(ident.UserID, parsed)

	if err := s.dispatcher.Publish(ctx, bus.TopicPresenceChanged, bus.PresenceChangedPayload{
		UserID:   rec.UserID,
		Status:   string(rec.Status),
		LastSeen: rec.LastSeen,
	}); err != nil {
		s.logger.Warn("presence change export failed", "user_id", rec.UserID, "err", err)
	}

	return rec, nil
}

// Query returns records for the given users, or all tracked records when no
// filter is supplied, plus the aggregate online count.
func (s *PresenceService) Query(_ context.Context, userIDs []string) ([]presence.Record, int) {
	if len(userIDs) == 0 {
		return s.store.All(), s.store.OnlineCount()
	}
	return s.store.Get(userIDs), s.store.OnlineCount()
}
