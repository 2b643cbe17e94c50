package directory

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fieldworks/realtime-service/config"
	"github.com/fieldworks/realtime-service/internal/domain/apperr"
)

func newDirectoryClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(config.DirectoryConfig{
		BaseURL:   baseURL,
		Token:     "svc-token",
		Timeout:   2 * time.Second,
		CacheSize: 16,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return c
}

func TestResolveMembers_FetchesAndCaches(t *testing.T) {
	req := require.New(t)

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		req.Equal("/v1/companies/company-42/members", r.URL.Path)
		req.Equal("Bearer svc-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"members":[{"user_id":"user-1"},{"user_id":"user-2"},{"user_id":""}]}`))
	}))
	defer srv.Close()

	c := newDirectoryClient(t, srv.URL)

	members, err := c.ResolveMembers(context.Background(), "company-42")
	req.NoError(err)
	req.Equal([]string{"user-1", "user-2"}, members)

	// Second lookup is served from the LRU, not the wire.
	members, err = c.ResolveMembers(context.Background(), "company-42")
	req.NoError(err)
	req.Len(members, 2)
	req.Equal(int64(1), hits.Load())
}

func TestResolveMembers_NonOKStatusIsUnavailable(t *testing.T) {
	req := require.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newDirectoryClient(t, srv.URL)
	_, err := c.ResolveMembers(context.Background(), "company-42")
	req.ErrorIs(err, apperr.ErrUnavailable)
}

func TestResolveMembers_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	req := require.New(t)

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newDirectoryClient(t, srv.URL)
	for i := 0; i < 8; i++ {
		_, err := c.ResolveMembers(context.Background(), "company-42")
		req.ErrorIs(err, apperr.ErrUnavailable)
	}

	// After five consecutive failures the breaker opens and stops the
	// remaining calls from reaching the wire.
	req.Equal(int64(5), hits.Load())
}

func TestUnconfigured_ReportsUnavailable(t *testing.T) {
	req := require.New(t)
	_, err := Unconfigured{}.ResolveMembers(context.Background(), "company-42")
	req.ErrorIs(err, apperr.ErrUnavailable)
}
