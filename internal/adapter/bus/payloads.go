package bus

import (
	"time"

	"github.com/fieldworks/realtime-service/internal/domain/event"
)

// PresenceChangedPayload announces an accepted status update.
type PresenceChangedPayload struct {
	UserID   string    `json:"user_id"`
	Status   string    `json:"status"`
	LastSeen time.Time `json:"last_seen"`
}

// EventPublishedPayload mirrors an accepted publish for audit listeners.
type EventPublishedPayload struct {
	Event      *event.Event `json:"event"`
	Recipients int          `json:"recipients"`
}
