package registry

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"github.com/fieldworks/realtime-service/config"
)

var Module = fx.Module("registry",
	fx.Provide(
		func(cfg *config.Config) (*Hub, error) {
			policy, err := ParseEvictionPolicy(cfg.Mailbox.EvictionPolicy)
			if err != nil {
				return nil, fmt.Errorf("registry: %w", err)
			}
			return NewHub(
				WithMailboxCapacity(cfg.Mailbox.Capacity),
				WithEvictionPolicy(policy),
				WithExpireOnDrain(cfg.Mailbox.ExpireOnDrain),
				WithJanitorInterval(cfg.Mailbox.JanitorInterval),
				WithIdleTimeout(cfg.Mailbox.IdleTimeout),
			), nil
		},
		fx.Annotate(
			func(h *Hub) Mailboxer { return h },
			fx.As(new(Mailboxer)),
		),
	),
	fx.Invoke(func(lc fx.Lifecycle, h *Hub) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				h.Shutdown()
				return nil
			},
		})
	}),
)
