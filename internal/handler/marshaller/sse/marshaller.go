// Package ssemarshaller encodes relay events as Server-Sent-Events frames.
package ssemarshaller

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fieldworks/realtime-service/internal/domain/event"
)

// Frame renders one `data: <json>` frame. EventSource clients receive the
// whole event envelope as the message payload.
func Frame(ev *event.Event) ([]byte, error) {
	raw, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("sse: marshal event %s: %w", ev.ID, err)
	}
	buf := make([]byte, 0, len(raw)+8)
	buf = append(buf, "data: "...)
	buf = append(buf, raw...)
	buf = append(buf, "\n\n"...)
	return buf, nil
}

// Heartbeat renders a comment line. Comments keep intermediaries from
// closing an idle connection and are invisible to EventSource clients.
func Heartbeat(now time.Time) []byte {
	return []byte(fmt.Sprintf(": heartbeat %d\n\n", now.UnixMilli()))
}
