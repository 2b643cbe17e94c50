// Package directory resolves a company identifier to its member user IDs by
// calling the platform's directory service. Company membership is owned by
// an external collaborator; the relay only consumes it.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"

	"github.com/fieldworks/realtime-service/config"
	"github.com/fieldworks/realtime-service/internal/domain/apperr"
)

// Resolver is the lookup contract the publisher depends on.
type Resolver interface {
	ResolveMembers(ctx context.Context, companyID string) ([]string, error)
}

// Unconfigured is the default when no directory endpoint is set. It reports
// unavailable so the publisher can apply its documented broadcast fallback.
type Unconfigured struct{}

func (Unconfigured) ResolveMembers(context.Context, string) ([]string, error) {
	return nil, fmt.Errorf("%w: directory service not configured", apperr.ErrUnavailable)
}

// Client is the HTTP implementation: cache-aside LRU for hot companies,
// singleflight to collapse concurrent lookups of the same company, and a
// circuit breaker so a down directory does not stall every publish.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
	breaker *gobreaker.CircuitBreaker
	cache   *lru.Cache[string, []string]
	group   singleflight.Group
	logger  *slog.Logger
}

func NewClient(cfg config.DirectoryConfig, logger *slog.Logger) (*Client, error) {
	cache, err := lru.New[string, []string](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("directory: cache init: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "directory",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("directory breaker state changed", "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		httpc:   &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		cache:   cache,
		logger:  logger,
	}, nil
}

func (c *Client) ResolveMembers(ctx context.Context, companyID string) ([]string, error) {
	if members, ok := c.cache.Get(companyID); ok {
		return members, nil
	}

	res, err, _ := c.group.Do(companyID, func() (any, error) {
		out, err := c.breaker.Execute(func() (any, error) {
			return c.fetchMembers(ctx, companyID)
		})
		if err != nil {
			return nil, err
		}
		members := out.([]string)
		c.cache.Add(companyID, members)
		return members, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: resolve company %s: %w", apperr.ErrUnavailable, companyID, err)
	}
	return res.([]string), nil
}

type membersResponse struct {
	Members []struct {
		UserID string `json:"user_id"`
	} `json:"members"`
}

func (c *Client) fetchMembers(ctx context.Context, companyID string) ([]string, error) {
	url := fmt.Sprintf("%s/v1/companies/%s/members", c.baseURL, companyID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directory returned status %d", resp.StatusCode)
	}

	var body membersResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode members: %w", err)
	}

	members := make([]string, 0, len(body.Members))
	for _, m := range body.Members {
		if m.UserID != "" {
			members = append(members, m.UserID)
		}
	}
	return members, nil
}
