package registry

import "time"

// Option configures the Hub.
type Option func(*Hub)

// WithMailboxCapacity bounds each user's pending queue. Zero or negative
// means unbounded.
func WithMailboxCapacity(n int) Option {
	return func(h *Hub) {
		h.cfg.cell.capacity = n
	}
}

// WithEvictionPolicy selects the behavior of a full mailbox.
func WithEvictionPolicy(p EvictionPolicy) Option {
	return func(h *Hub) {
		h.cfg.cell.policy = p
	}
}

// WithExpireOnDrain enables TTL enforcement: expired events are dropped at
// drain time instead of delivered.
func WithExpireOnDrain(enabled bool) Option {
	return func(h *Hub) {
		h.cfg.cell.expireOnDrain = enabled
	}
}

// WithJanitorInterval configures how often idle empty cells are reclaimed.
// Zero disables the janitor.
func WithJanitorInterval(d time.Duration) Option {
	return func(h *Hub) {
		h.cfg.janitorInterval = d
	}
}

// WithIdleTimeout defines the quiet period after which a sessionless, empty
// cell becomes eligible for reclamation.
func WithIdleTimeout(d time.Duration) Option {
	return func(h *Hub) {
		h.cfg.idleTimeout = d
	}
}
