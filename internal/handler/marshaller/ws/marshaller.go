// Package wsmarshaller encodes relay events for the WebSocket transport.
package wsmarshaller

import (
	"encoding/json"

	"github.com/fieldworks/realtime-service/internal/domain/event"
)

// WSEvent is the envelope written to WebSocket clients, kept flat so web
// dashboards can switch on `event` without unwrapping.
type WSEvent struct {
	Event   string `json:"event"`
	ID      string `json:"id"`
	SentAt  int64  `json:"sent_at"`
	Payload any    `json:"payload"`
}

func MarshallDeliveryEvent(ev *event.Event) ([]byte, error) {
	return json.Marshal(&WSEvent{
		Event:   ev.Type,
		ID:      ev.ID,
		SentAt:  ev.OccurredAt,
		Payload: ev,
	})
}
