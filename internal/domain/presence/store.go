// Package presence tracks each user's self-reported availability and
// last-seen time. Records are single-writer per user (only the user's own
// status call mutates them) and multi-reader.
package presence

import (
	"fmt"
	"sync"
	"time"
)

type Status string

const (
	StatusOnline  Status = "online"
	StatusAway    Status = "away"
	StatusOffline Status = "offline"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusOnline, StatusAway, StatusOffline:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown presence status %q", s)
	}
}

type Record struct {
	UserID   string    `json:"user_id"`
	Status   Status    `json:"status"`
	LastSeen time.Time `json:"last_seen"`
}

// Storer abstracts the presence map so the in-memory implementation and a
// future shared store stay interchangeable.
type Storer interface {
	Set(userID string, status Status) Record
	Get(userIDs []string) []Record
	All() []Record
	TrackedUsers() []string
	OnlineCount() int
	SweepStale(staleAfter time.Duration) int
}

// Store is the in-memory implementation. A single RWMutex is enough: the
// map is small (one entry per user seen since boot) and reads dominate.
type Store struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewStore() *Store {
	return &Store{records: make(map[string]Record)}
}

// Set upserts the record with the current time as last-seen and returns it.
func (s *Store) Set(userID string, status Status) Record {
	rec := Record{UserID: userID, Status: status, LastSeen: time.Now()}
	s.mu.Lock()
	s.records[userID] = rec
	s.mu.Unlock()
	return rec
}

// Get returns a record for exactly the requested users. Unknown users
// report offline with a zero last-seen, so callers can render a full roster
// without existence checks.
func (s *Store) Get(userIDs []string) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(userIDs))
	for _, id := range userIDs {
		if rec, ok := s.records[id]; ok {
			out = append(out, rec)
			continue
		}
		out = append(out, Record{UserID: id, Status: StatusOffline})
	}
	return out
}

func (s *Store) All() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	return out
}

func (s *Store) TrackedUsers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.records))
	for id := range s.records {
		out = append(out, id)
	}
	return out
}

func (s *Store) OnlineCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, rec := range s.records {
		if rec.Status == StatusOnline {
			n++
		}
	}
	return n
}

// SweepStale forces offline, in place, every record whose last-seen is older
// than staleAfter. LastSeen is preserved so "last seen at" stays truthful.
// Idempotent: records already offline are skipped.
func (s *Store) SweepStale(staleAfter time.Duration) int {
	cutoff := time.Now().Add(-staleAfter)
	s.mu.Lock()
	defer s.mu.Unlock()
	swept := 0
	for id, rec := range s.records {
		if rec.Status != StatusOffline && rec.LastSeen.Before(cutoff) {
			rec.Status = StatusOffline
			s.records[id] = rec
			swept++
		}
	}
	return swept
}
