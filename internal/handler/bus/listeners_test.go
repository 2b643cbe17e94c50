package bus

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/require"

	adapterbus "github.com/fieldworks/realtime-service/internal/adapter/bus"
	"github.com/fieldworks/realtime-service/internal/domain/event"
	"github.com/fieldworks/realtime-service/internal/domain/registry"
)

func newTestListener(t *testing.T) (*Listener, *registry.Hub) {
	t.Helper()
	hub := registry.NewHub(registry.WithJanitorInterval(0))
	t.Cleanup(hub.Shutdown)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewListener(hub, logger), hub
}

func TestOnPresenceChanged_FansOutToConnectedUsersOnly(t *testing.T) {
	req := require.New(t)
	l, hub := newTestListener(t)

	watcherConn := registry.NewConnection(context.Background(), "watcher")
	defer watcherConn.Close()
	hub.Register(watcherConn)
	subjectConn := registry.NewConnection(context.Background(), "user-1")
	defer subjectConn.Close()
	hub.Register(subjectConn)

	// Known to the hub but not connected.
	req.NoError(hub.Enqueue("offline-user", event.New("seed", map[string]any{}, "", event.PriorityLow, 0)))
	hub.Drain("offline-user")

	err := l.OnPresenceChanged(context.Background(), &adapterbus.PresenceChangedPayload{
		UserID: "user-1",
		Status: "away",
	})
	req.NoError(err)

	batch := hub.Drain("watcher")
	req.Len(batch, 1)
	req.Equal(event.TypePresenceChanged, batch[0].Type)
	req.Equal("user-1", batch[0].Sender)

	// The subject does not hear its own change, offline users hear nothing.
	req.Empty(hub.Drain("user-1"))
	req.Empty(hub.Drain("offline-user"))
}

func TestBind_DecodesPayloadAndAcksPoisonPills(t *testing.T) {
	req := require.New(t)
	l, _ := newTestListener(t)

	var got *adapterbus.PresenceChangedPayload
	handler := Bind(l, func(_ context.Context, p *adapterbus.PresenceChangedPayload) error {
		got = p
		return nil
	})

	raw, err := json.Marshal(adapterbus.PresenceChangedPayload{UserID: "user-1", Status: "online"})
	req.NoError(err)
	req.NoError(handler(message.NewMessage(watermill.NewUUID(), raw)))
	req.NotNil(got)
	req.Equal("user-1", got.UserID)

	// A payload that can never decode is ACKed, not retried forever.
	got = nil
	req.NoError(handler(message.NewMessage(watermill.NewUUID(), []byte("{broken"))))
	req.Nil(got)
}

func TestOnEventPublished_AcceptsPayload(t *testing.T) {
	req := require.New(t)
	l, _ := newTestListener(t)

	err := l.OnEventPublished(context.Background(), &adapterbus.EventPublishedPayload{
		Event:      event.New("task_assigned", map[string]any{"taskId": "task-9"}, "user-1", event.PriorityNormal, 0),
		Recipients: 2,
	})
	req.NoError(err)
}
