package directory

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/fieldworks/realtime-service/config"
)

var Module = fx.Module("directory",
	fx.Provide(
		func(cfg *config.Config, logger *slog.Logger) (Resolver, error) {
			if cfg.Directory.BaseURL == "" {
				logger.Warn("directory service not configured, company publishes will degrade to broadcast")
				return Unconfigured{}, nil
			}
			return NewClient(cfg.Directory, logger)
		},
	),
)
