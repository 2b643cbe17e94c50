package registry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Connection represents one open stream (SSE or WebSocket) for one user.
// It carries no event buffer of its own: events live in the user's cell and
// the connection is only woken up to pull them.
type Connection struct {
	id        uuid.UUID
	userID    string
	createdAt time.Time

	ctx    context.Context
	cancel context.CancelFunc

	// wake has capacity 1: a single pending signal is enough, the drain
	// empties the whole mailbox regardless of how many enqueues raced.
	wake chan struct{}

	closeOnce sync.Once
}

// NewConnection derives the connection lifetime from the transport context,
// so a client disconnect tears it down without extra plumbing.
func NewConnection(ctx context.Context, userID string) *Connection {
	childCtx, cancel := context.WithCancel(ctx)
	return &Connection{
		id:        uuid.New(),
		userID:    userID,
		createdAt: time.Now(),
		ctx:       childCtx,
		cancel:    cancel,
		wake:      make(chan struct{}, 1),
	}
}

func (c *Connection) ID() uuid.UUID  { return c.id }
func (c *Connection) UserID() string { return c.userID }

// Wake fires when an event was enqueued for this user and an immediate drain
// is worthwhile. The stream's tickers remain the fallback.
func (c *Connection) Wake() <-chan struct{} { return c.wake }

// Done fires when the connection is closed from either side.
func (c *Connection) Done() <-chan struct{} { return c.ctx.Done() }

// notify is a non-blocking signal; a signal already pending covers this one.
func (c *Connection) notify() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Close is idempotent: it may be called by the handler (defer), the hub
// (unregister) and the shutdown path concurrently.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
	})
}
