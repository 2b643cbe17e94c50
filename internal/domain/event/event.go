package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Priority int32

const (
	PriorityLow    Priority = 10
	PriorityNormal Priority = 20
	PriorityHigh   Priority = 30
)

// System event types emitted by the relay itself. Business types
// (task_assigned, rfi_answered, ...) are free-form strings chosen by callers.
const (
	TypeConnected       = "connected"
	TypePresenceChanged = "presence_changed"
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityHigh:
		return "high"
	default:
		return "normal"
	}
}

// ParsePriority maps the wire representation to a level. The empty string is
// accepted as normal so callers may omit the field.
func ParsePriority(s string) (Priority, error) {
	switch s {
	case "low":
		return PriorityLow, nil
	case "", "normal":
		return PriorityNormal, nil
	case "high":
		return PriorityHigh, nil
	default:
		return 0, fmt.Errorf("unknown priority %q", s)
	}
}

func (p Priority) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Priority) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParsePriority(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Event is the single data packet flowing through the relay. It is built
// exactly once per publish and shared by every recipient mailbox; consumers
// must treat it as read-only.
type Event struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"`
	Data       any      `json:"data"`
	Priority   Priority `json:"priority"`
	Sender     string   `json:"sender,omitempty"`
	OccurredAt int64    `json:"timestamp"`
	ExpiresAt  int64    `json:"expires_at,omitempty"`
}

const DefaultTTL = time.Hour

// New builds an event stamped with a fresh UUID and unix-ms timestamps.
// A non-positive ttl falls back to DefaultTTL.
func New(evType string, data any, sender string, priority Priority, ttl time.Duration) *Event {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now()
	return &Event{
		ID:         uuid.NewString(),
		Type:       evType,
		Data:       data,
		Priority:   priority,
		Sender:     sender,
		OccurredAt: now.UnixMilli(),
		ExpiresAt:  now.Add(ttl).UnixMilli(),
	}
}

// Expired reports whether the event's advisory TTL has elapsed. Enforcement
// is opt-in at drain time.
func (e *Event) Expired(now time.Time) bool {
	return e.ExpiresAt > 0 && now.UnixMilli() > e.ExpiresAt
}
