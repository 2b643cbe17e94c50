package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fieldworks/realtime-service/internal/domain/apperr"
	"github.com/fieldworks/realtime-service/internal/domain/event"
)

func newEvent(evType string) *event.Event {
	return event.New(evType, map[string]any{"k": "v"}, "sender-1", event.PriorityNormal, 0)
}

func TestCell_EnqueueThenDrain_PreservesOrderAndEmpties(t *testing.T) {
	req := require.New(t)
	cell := NewCell("user-1", cellConfig{capacity: 16})

	req.NoError(cell.Enqueue(newEvent("first")))
	req.NoError(cell.Enqueue(newEvent("second")))
	req.NoError(cell.Enqueue(newEvent("third")))

	batch := cell.Drain()
	req.Len(batch, 3)
	req.Equal("first", batch[0].Type)
	req.Equal("second", batch[1].Type)
	req.Equal("third", batch[2].Type)

	req.Zero(cell.Pending())
	req.Empty(cell.Drain())
}

func TestCell_DropOldest_EvictsHeadWhenFull(t *testing.T) {
	req := require.New(t)
	cell := NewCell("user-1", cellConfig{capacity: 2, policy: DropOldest})

	req.NoError(cell.Enqueue(newEvent("a")))
	req.NoError(cell.Enqueue(newEvent("b")))
	req.NoError(cell.Enqueue(newEvent("c")))

	batch := cell.Drain()
	req.Len(batch, 2)
	req.Equal("b", batch[0].Type)
	req.Equal("c", batch[1].Type)
}

func TestCell_RejectNew_SurfacesMailboxFull(t *testing.T) {
	req := require.New(t)
	cell := NewCell("user-1", cellConfig{capacity: 1, policy: RejectNew})

	req.NoError(cell.Enqueue(newEvent("kept")))
	err := cell.Enqueue(newEvent("rejected"))
	req.ErrorIs(err, apperr.ErrMailboxFull)

	batch := cell.Drain()
	req.Len(batch, 1)
	req.Equal("kept", batch[0].Type)
}

func TestCell_ExpireOnDrain_DropsExpiredEvents(t *testing.T) {
	req := require.New(t)
	cell := NewCell("user-1", cellConfig{capacity: 16, expireOnDrain: true})

	expired := newEvent("stale")
	expired.ExpiresAt = time.Now().Add(-time.Second).UnixMilli()
	req.NoError(cell.Enqueue(expired))
	req.NoError(cell.Enqueue(newEvent("fresh")))

	batch := cell.Drain()
	req.Len(batch, 1)
	req.Equal("fresh", batch[0].Type)
}

func TestCell_ExpiryAdvisoryByDefault(t *testing.T) {
	req := require.New(t)
	cell := NewCell("user-1", cellConfig{capacity: 16})

	expired := newEvent("stale")
	expired.ExpiresAt = time.Now().Add(-time.Second).UnixMilli()
	req.NoError(cell.Enqueue(expired))

	req.Len(cell.Drain(), 1)
}

func TestCell_EnqueueWakesAttachedSessions(t *testing.T) {
	req := require.New(t)
	cell := NewCell("user-1", cellConfig{capacity: 16})

	conn := NewConnection(context.Background(), "user-1")
	defer conn.Close()
	cell.Attach(conn)

	req.NoError(cell.Enqueue(newEvent("wake-up")))

	select {
	case <-conn.Wake():
	case <-time.After(time.Second):
		t.Fatal("expected a wake signal after enqueue")
	}
}

func TestCell_IsIdle_NeverWhileEventsPending(t *testing.T) {
	req := require.New(t)
	cell := NewCell("user-1", cellConfig{capacity: 16})
	req.NoError(cell.Enqueue(newEvent("held")))

	// Force the activity clock far into the past; pending events must still
	// pin the cell.
	cell.mu.Lock()
	cell.lastActivityAt = time.Now().Add(-time.Hour)
	cell.mu.Unlock()

	req.False(cell.IsIdle(time.Minute))

	cell.Drain()
	cell.mu.Lock()
	cell.lastActivityAt = time.Now().Add(-time.Hour)
	cell.mu.Unlock()
	req.True(cell.IsIdle(time.Minute))
}
