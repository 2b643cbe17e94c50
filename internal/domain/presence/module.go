package presence

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/fieldworks/realtime-service/config"
)

var Module = fx.Module("presence",
	fx.Provide(
		NewStore,
		fx.Annotate(
			func(s *Store) Storer { return s },
			fx.As(new(Storer)),
		),
		func(store Storer, logger *slog.Logger, cfg *config.Config) *Sweeper {
			return NewSweeper(store, logger, cfg.Presence.SweepInterval, cfg.Presence.StaleAfter)
		},
	),
	fx.Invoke(func(lc fx.Lifecycle, sweeper *Sweeper) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				sweeper.Start()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				sweeper.Stop()
				return nil
			},
		})
	}),
)
