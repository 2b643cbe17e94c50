package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/fieldworks/realtime-service/internal/domain/event"
	"github.com/fieldworks/realtime-service/internal/domain/registry"
)

// Deliverer is the primary interface for stream transports (SSE/WebSocket).
type Deliverer interface {
	Subscribe(ctx context.Context, userID string) (*registry.Connection, error)
	Unsubscribe(userID string, connID uuid.UUID)
	Drain(userID string) []*event.Event
}

type DeliveryService struct {
	hub registry.Mailboxer
}

func NewDeliveryService(hub registry.Mailboxer) *DeliveryService {
	return &DeliveryService{hub: hub}
}

// Subscribe attaches a new connection to the user's cell. Everything
// enqueued for this user from now on wakes the returned connection; events
// that accumulated while offline are picked up by the first drain.
func (s *DeliveryService) Subscribe(ctx context.Context, userID string) (*registry.Connection, error) {
	conn := registry.NewConnection(ctx, userID)
	s.hub.Register(conn)
	return conn, nil
}

func (s *DeliveryService) Unsubscribe(userID string, connID uuid.UUID) {
	s.hub.Unregister(userID, connID)
}

func (s *DeliveryService) Drain(userID string) []*event.Event {
	return s.hub.Drain(userID)
}
