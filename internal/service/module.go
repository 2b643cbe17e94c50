package service

import (
	"go.uber.org/fx"
)

var Module = fx.Module(
	"service",

	fx.Provide(
		fx.Annotate(
			NewDeliveryService,
			fx.As(new(Deliverer)),
		),
		fx.Annotate(
			NewPublishService,
			fx.As(new(Publisher)),
		),
		fx.Annotate(
			NewPresenceService,
			fx.As(new(Presencer)),
		),
	),
)
