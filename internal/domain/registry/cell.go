package registry

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/fieldworks/realtime-service/internal/domain/apperr"
	"github.com/fieldworks/realtime-service/internal/domain/event"
)

// EvictionPolicy decides what happens when a bounded mailbox is full.
type EvictionPolicy int

const (
	// DropOldest evicts the head of the queue to make room. Delivery stays
	// best-effort and the enqueue never fails.
	DropOldest EvictionPolicy = iota
	// RejectNew refuses the incoming event with apperr.ErrMailboxFull.
	RejectNew
)

func ParseEvictionPolicy(s string) (EvictionPolicy, error) {
	switch s {
	case "", "drop_oldest":
		return DropOldest, nil
	case "reject_new":
		return RejectNew, nil
	default:
		return 0, fmt.Errorf("unknown eviction policy %q", s)
	}
}

type cellConfig struct {
	capacity      int
	policy        EvictionPolicy
	expireOnDrain bool
}

// Cell is the delivery unit for a single user: a bounded FIFO of pending
// events plus the set of open stream sessions. Cells are created lazily on
// first enqueue or first connection and reclaimed by the hub's janitor once
// empty and idle.
type Cell struct {
	userID string
	cfg    cellConfig

	mu             sync.Mutex
	pending        []*event.Event
	sessions       map[uuid.UUID]*Connection
	lastActivityAt time.Time

	dropped uint64 // atomic
	expired uint64 // atomic
}

func NewCell(userID string, cfg cellConfig) *Cell {
	return &Cell{
		userID:         userID,
		cfg:            cfg,
		sessions:       make(map[uuid.UUID]*Connection),
		lastActivityAt: time.Now(),
	}
}

// Enqueue appends the event in arrival order and wakes every open session.
// Events enqueued while a drain is in flight land in that batch or the next,
// never both and never nowhere: the queue swap happens under the same lock.
func (c *Cell) Enqueue(ev *event.Event) error {
	c.mu.Lock()
	if c.cfg.capacity > 0 && len(c.pending) >= c.cfg.capacity {
		if c.cfg.policy == RejectNew {
			c.mu.Unlock()
			atomic.AddUint64(&c.dropped, 1)
			return fmt.Errorf("user %s: %w", c.userID, apperr.ErrMailboxFull)
		}
		// DropOldest: shift the head out. copy keeps the backing array from
		// growing a permanent dead prefix.
		copy(c.pending, c.pending[1:])
		c.pending = c.pending[:len(c.pending)-1]
		atomic.AddUint64(&c.dropped, 1)
	}
	c.pending = append(c.pending, ev)
	c.lastActivityAt = time.Now()

	woken := make([]*Connection, 0, len(c.sessions))
	for _, conn := range c.sessions {
		woken = append(woken, conn)
	}
	c.mu.Unlock()

	for _, conn := range woken {
		conn.notify()
	}
	return nil
}

// Drain atomically removes and returns all pending events in enqueue order.
// With expire-on-drain enabled, events past their TTL are dropped here and
// counted instead of delivered.
func (c *Cell) Drain() []*event.Event {
	c.mu.Lock()
	batch := c.pending
	c.pending = nil
	c.lastActivityAt = time.Now()
	c.mu.Unlock()

	if !c.cfg.expireOnDrain || len(batch) == 0 {
		return batch
	}

	now := time.Now()
	live := batch[:0]
	for _, ev := range batch {
		if ev.Expired(now) {
			atomic.AddUint64(&c.expired, 1)
			continue
		}
		live = append(live, ev)
	}
	return live
}

func (c *Cell) Attach(conn *Connection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[conn.ID()] = conn
	c.lastActivityAt = time.Now()
}

// Detach removes the session and reports whether the cell has none left.
func (c *Cell) Detach(connID uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, connID)
	c.lastActivityAt = time.Now()
	return len(c.sessions) == 0
}

func (c *Cell) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *Cell) SessionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

// IsIdle reports whether the cell is reclaimable: no sessions, nothing
// pending, and quiet past the timeout. A cell holding undelivered events is
// never idle — they must survive until someone connects.
func (c *Cell) IsIdle(timeout time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions) == 0 && len(c.pending) == 0 && time.Since(c.lastActivityAt) > timeout
}

// Stop closes every remaining session. Used on hub shutdown.
func (c *Cell) Stop() {
	c.mu.Lock()
	conns := make([]*Connection, 0, len(c.sessions))
	for _, conn := range c.sessions {
		conns = append(conns, conn)
	}
	c.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}
}
