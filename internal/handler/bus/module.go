package bus

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/fx"

	adapterbus "github.com/fieldworks/realtime-service/internal/adapter/bus"
)

var Module = fx.Module("bus-handler",
	fx.Provide(
		NewListener,
		NewBusRouter,
	),
	fx.Invoke(func(lc fx.Lifecycle, router *message.Router, l *Listener, dispatcher adapterbus.Dispatcher, logger *slog.Logger) error {
		if err := RegisterHandlers(router, l, dispatcher); err != nil {
			return err
		}
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				go func() {
					if err := router.Run(context.Background()); err != nil {
						logger.Error("bus router stopped", "err", err)
					}
				}()
				select {
				case <-router.Running():
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			},
			OnStop: func(ctx context.Context) error {
				return router.Close()
			},
		})
		return nil
	}),
)
