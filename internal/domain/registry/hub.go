package registry

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/fieldworks/realtime-service/internal/domain/event"
)

// Mailboxer is the store abstraction in front of the in-memory hub so a
// future shared store (external key-value) can replace it without touching
// callers.
type Mailboxer interface {
	Enqueue(userID string, ev *event.Event) error
	Drain(userID string) []*event.Event
	Register(conn *Connection)
	Unregister(userID string, connID uuid.UUID)
	IsConnected(userID string) bool
	KnownUsers() []string
	ConnectedUsers() []string
	Stats() Stats
}

// Stats is the operational snapshot exposed on the stats endpoint.
type Stats struct {
	TotalUsers       int    `json:"total_users"`
	TotalConnections int    `json:"total_connections"`
	PendingEvents    int    `json:"pending_events"`
	DroppedEvents    uint64 `json:"dropped_events"`
	ExpiredEvents    uint64 `json:"expired_events"`
	UptimeSeconds    int64  `json:"uptime_seconds"`
}

type hubConfig struct {
	cell            cellConfig
	janitorInterval time.Duration
	idleTimeout     time.Duration
}

// Hub keeps one Cell per user in a sync.Map: lookups dominate mutations in
// this workload. Cells are created lazily and reclaimed by the janitor only
// when empty and idle, so undelivered events survive arbitrarily long
// offline periods.
type Hub struct {
	cells     sync.Map // map[string]*Cell
	cfg       hubConfig
	startedAt time.Time
	doneCh    chan struct{}
	stopOnce  sync.Once
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		cfg: hubConfig{
			cell:            cellConfig{capacity: 1024, policy: DropOldest},
			janitorInterval: 15 * time.Minute,
			idleTimeout:     30 * time.Minute,
		},
		startedAt: time.Now(),
		doneCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.cfg.janitorInterval > 0 {
		go h.janitor()
	}
	return h
}

func (h *Hub) cell(userID string) *Cell {
	if val, ok := h.cells.Load(userID); ok {
		return val.(*Cell)
	}
	val, _ := h.cells.LoadOrStore(userID, NewCell(userID, h.cfg.cell))
	return val.(*Cell)
}

func (h *Hub) Enqueue(userID string, ev *event.Event) error {
	return h.cell(userID).Enqueue(ev)
}

func (h *Hub) Drain(userID string) []*event.Event {
	if val, ok := h.cells.Load(userID); ok {
		return val.(*Cell).Drain()
	}
	return nil
}

func (h *Hub) Register(conn *Connection) {
	h.cell(conn.UserID()).Attach(conn)
}

// Unregister detaches the session and closes it. The cell stays: it may
// still hold undelivered events, and the janitor reclaims it later if not.
func (h *Hub) Unregister(userID string, connID uuid.UUID) {
	if val, ok := h.cells.Load(userID); ok {
		val.(*Cell).Detach(connID)
	}
}

func (h *Hub) IsConnected(userID string) bool {
	if val, ok := h.cells.Load(userID); ok {
		return val.(*Cell).SessionCount() > 0
	}
	return false
}

// KnownUsers lists every user with a live cell: the broadcast base set.
func (h *Hub) KnownUsers() []string {
	var users []string
	h.cells.Range(func(key, _ any) bool {
		users = append(users, key.(string))
		return true
	})
	return users
}

// ConnectedUsers lists users with at least one open stream.
func (h *Hub) ConnectedUsers() []string {
	var users []string
	h.cells.Range(func(key, val any) bool {
		if val.(*Cell).SessionCount() > 0 {
			users = append(users, key.(string))
		}
		return true
	})
	return users
}

func (h *Hub) Stats() Stats {
	st := Stats{UptimeSeconds: int64(time.Since(h.startedAt).Seconds())}
	h.cells.Range(func(_, val any) bool {
		c := val.(*Cell)
		st.TotalUsers++
		st.TotalConnections += c.SessionCount()
		st.PendingEvents += c.Pending()
		st.DroppedEvents += atomic.LoadUint64(&c.dropped)
		st.ExpiredEvents += atomic.LoadUint64(&c.expired)
		return true
	})
	return st
}

func (h *Hub) janitor() {
	ticker := time.NewTicker(h.cfg.janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-h.doneCh:
			return
		case <-ticker.C:
			h.cells.Range(func(key, val any) bool {
				if val.(*Cell).IsIdle(h.cfg.idleTimeout) {
					h.cells.Delete(key)
				}
				return true
			})
		}
	}
}

// Shutdown stops the janitor and closes every open session.
func (h *Hub) Shutdown() {
	h.stopOnce.Do(func() {
		close(h.doneCh)
		h.cells.Range(func(_, val any) bool {
			val.(*Cell).Stop()
			return true
		})
	})
}
