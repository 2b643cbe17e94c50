package bus

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	adapterbus "github.com/fieldworks/realtime-service/internal/adapter/bus"
)

func NewBusRouter(wmLogger watermill.LoggerAdapter) (*message.Router, error) {
	return message.NewRouter(message.RouterConfig{}, wmLogger)
}

// RegisterHandlers attaches every bus listener. Add new topic consumers to
// the table below.
func RegisterHandlers(router *message.Router, l *Listener, dispatcher adapterbus.Dispatcher) error {
	configs := []struct {
		name    string
		topic   string
		handler message.NoPublishHandlerFunc
	}{
		{"on_presence_changed", adapterbus.TopicPresenceChanged, Bind(l, l.OnPresenceChanged)},
		{"on_event_published", adapterbus.TopicEventPublished, Bind(l, l.OnEventPublished)},
	}

	for _, c := range configs {
		router.AddConsumerHandler(c.name, c.topic, dispatcher.Subscriber(), c.handler).AddMiddleware(
			TraceIDMiddleware,
			LoggingMiddleware(l.logger),
			NewRetryMiddleware().Middleware,
			middleware.Timeout(10*time.Second),
		)
	}

	l.logger.Info("bus pipeline ready", "handlers", len(configs))
	return nil
}
