package presence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	req := require.New(t)
	tests := []struct {
		input   string
		want    Status
		wantErr bool
	}{
		{"online", StatusOnline, false},
		{"away", StatusAway, false},
		{"offline", StatusOffline, false},
		{"busy", "", true},
		{"", "", true},
		{"ONLINE", "", true},
	}

	for _, tt := range tests {
		got, err := ParseStatus(tt.input)
		if tt.wantErr {
			req.Error(err, "input %q", tt.input)
		} else {
			req.NoError(err)
			req.Equal(tt.want, got)
		}
	}
}

func TestStore_SetUpsertsWithFreshLastSeen(t *testing.T) {
	req := require.New(t)
	store := NewStore()

	before := time.Now()
	rec := store.Set("user-1", StatusOnline)
	req.Equal("user-1", rec.UserID)
	req.Equal(StatusOnline, rec.Status)
	req.False(rec.LastSeen.Before(before))

	rec = store.Set("user-1", StatusAway)
	req.Equal(StatusAway, rec.Status)
	req.Len(store.All(), 1)
}

func TestStore_GetDefaultsUnknownUsersToOffline(t *testing.T) {
	req := require.New(t)
	store := NewStore()
	store.Set("known", StatusOnline)

	records := store.Get([]string{"known", "stranger"})
	req.Len(records, 2)

	req.Equal(StatusOnline, records[0].Status)
	req.Equal("stranger", records[1].UserID)
	req.Equal(StatusOffline, records[1].Status)
	req.True(records[1].LastSeen.IsZero())
}

func TestStore_OnlineCount(t *testing.T) {
	req := require.New(t)
	store := NewStore()
	store.Set("a", StatusOnline)
	store.Set("b", StatusOnline)
	store.Set("c", StatusAway)
	store.Set("d", StatusOffline)

	req.Equal(2, store.OnlineCount())
}

func TestStore_SweepStale_DemotesOldRecordsInPlace(t *testing.T) {
	req := require.New(t)
	store := NewStore()

	store.Set("fresh", StatusOnline)
	store.Set("stale", StatusOnline)

	// Age the stale record past the threshold.
	store.mu.Lock()
	rec := store.records["stale"]
	rec.LastSeen = time.Now().Add(-10 * time.Minute)
	store.records["stale"] = rec
	store.mu.Unlock()

	swept := store.SweepStale(5 * time.Minute)
	req.Equal(1, swept)

	records := store.Get([]string{"fresh", "stale"})
	req.Equal(StatusOnline, records[0].Status)
	req.Equal(StatusOffline, records[1].Status)
	// LastSeen is preserved for "last seen at" rendering.
	req.False(records[1].LastSeen.IsZero())

	// Idempotent: nothing left to demote.
	req.Zero(store.SweepStale(5 * time.Minute))
}

func TestStore_TrackedUsers(t *testing.T) {
	req := require.New(t)
	store := NewStore()
	store.Set("a", StatusOnline)
	store.Set("b", StatusOffline)

	req.ElementsMatch([]string{"a", "b"}, store.TrackedUsers())
}
