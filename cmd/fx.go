package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.opentelemetry.io/otel"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/fieldworks/realtime-service/config"
	directorycli "github.com/fieldworks/realtime-service/infra/client/directory"
	httpsrv "github.com/fieldworks/realtime-service/infra/server/http"
	"github.com/fieldworks/realtime-service/internal/adapter/bus"
	"github.com/fieldworks/realtime-service/internal/auth"
	"github.com/fieldworks/realtime-service/internal/domain/presence"
	"github.com/fieldworks/realtime-service/internal/domain/registry"
	bushandler "github.com/fieldworks/realtime-service/internal/handler/bus"
	httphandler "github.com/fieldworks/realtime-service/internal/handler/http"
	"github.com/fieldworks/realtime-service/internal/service"
)

func NewApp(cfg *config.Config) *fx.App {
	return fx.New(
		fx.Provide(
			func() *config.Config { return cfg },
			ProvideLogger,
			ProvideWatermillLogger,
			ProvideTracerProvider,
			ProvideGoChannel,
			ProvideVerifier,
			bus.NewDispatcher,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger}
		}),
		registry.Module,
		presence.Module,
		directorycli.Module,
		service.Module,
		bushandler.Module,
		httphandler.Module,
		httpsrv.Module,
	)
}

func ProvideLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler).With("service", ServiceName)
	slog.SetDefault(logger)
	return logger
}

func ProvideWatermillLogger(logger *slog.Logger) watermill.LoggerAdapter {
	return watermill.NewSlogLogger(logger)
}

// ProvideTracerProvider installs the global tracer provider. Exporters are
// attached by the deployment environment; locally spans stay in-process.
func ProvideTracerProvider(lc fx.Lifecycle) (*sdktrace.TracerProvider, error) {
	res, err := sdkresource.Merge(
		sdkresource.Default(),
		sdkresource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(ServiceName),
			semconv.ServiceNamespace(ServiceNamespace),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	otel.SetTracerProvider(tp)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return tp.Shutdown(ctx)
		},
	})
	return tp, nil
}

func ProvideGoChannel(cfg *config.Config, wmLogger watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: int64(cfg.Bus.BufferSize),
	}, wmLogger)
}

func ProvideVerifier(cfg *config.Config) *auth.Verifier {
	return auth.NewVerifier(cfg.Auth.Secret, cfg.Auth.Issuer)
}
