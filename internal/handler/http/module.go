package http

import (
	"go.uber.org/fx"
)

var Module = fx.Module("http-handler",
	fx.Provide(
		NewStreamHandler,
		NewWSHandler,
		NewPublishHandler,
		NewPresenceHandler,
		NewStatsHandler,
		NewRouter,
	),
)
