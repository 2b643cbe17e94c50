// Package bus wraps the in-process watermill pub/sub used to decouple the
// write path (publish, presence updates) from background listeners. The
// relay is single-process by design, so the transport is gochannel rather
// than an external broker.
package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	TopicEventPublished  = "relay.event.published.v1"
	TopicPresenceChanged = "relay.presence.changed.v1"
)

// Dispatcher defines the high-level contract for outgoing bus messages.
// Handlers stay agnostic of the transport implementation.
type Dispatcher interface {
	Publish(ctx context.Context, topic string, payload any) error
	Publisher() message.Publisher
	Subscriber() message.Subscriber
}

type dispatcher struct {
	pubSub *gochannel.GoChannel
}

func NewDispatcher(pubSub *gochannel.GoChannel) Dispatcher {
	return &dispatcher{pubSub: pubSub}
}

func (d *dispatcher) Publish(ctx context.Context, topic string, payload any) error {
	if payload == nil {
		return fmt.Errorf("bus: cannot publish nil payload")
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("bus: marshal failure: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), raw)
	msg.SetContext(ctx)

	if err := d.pubSub.Publish(topic, msg); err != nil {
		return fmt.Errorf("bus: publish to topic %s: %w", topic, err)
	}
	return nil
}

func (d *dispatcher) Publisher() message.Publisher { return d.pubSub }

func (d *dispatcher) Subscriber() message.Subscriber { return d.pubSub }
