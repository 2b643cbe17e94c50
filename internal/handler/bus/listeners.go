// Package bus hosts the in-process event listeners: consumers of the
// relay's own bus topics, wired through a watermill router.
package bus

import (
	"context"
	"log/slog"
	"time"

	adapterbus "github.com/fieldworks/realtime-service/internal/adapter/bus"
	"github.com/fieldworks/realtime-service/internal/domain/event"
	"github.com/fieldworks/realtime-service/internal/domain/registry"
)

type Listener struct {
	hub    registry.Mailboxer
	logger *slog.Logger
}

func NewListener(hub registry.Mailboxer, logger *slog.Logger) *Listener {
	return &Listener{hub: hub, logger: logger}
}

// OnPresenceChanged fans an accepted status change out to every currently
// connected user, so open dashboards update without polling. Offline users
// are skipped on purpose: stale presence is worthless by the time they
// reconnect.
func (l *Listener) OnPresenceChanged(ctx context.Context, p *adapterbus.PresenceChangedPayload) error {
	ev := event.New(event.TypePresenceChanged, p, p.UserID, event.PriorityLow, time.Minute)

	for _, userID := range l.hub.ConnectedUsers() {
		if userID == p.UserID {
			continue
		}
		if err := l.hub.Enqueue(userID, ev); err != nil {
			l.logger.Warn("presence fan-out dropped", "user_id", userID, "err", err)
		}
	}
	return nil
}

// OnEventPublished is the audit trail for accepted publishes.
func (l *Listener) OnEventPublished(_ context.Context, p *adapterbus.EventPublishedPayload) error {
	l.logger.Info("event published",
		"event_id", p.Event.ID,
		"type", p.Event.Type,
		"sender", p.Event.Sender,
		"priority", p.Event.Priority.String(),
		"recipients", p.Recipients,
	)
	return nil
}
