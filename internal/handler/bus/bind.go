package bus

import (
	"context"
	"encoding/json"
	"runtime/debug"

	"github.com/ThreeDotsLabs/watermill/message"
)

// DomainHandler is the typed business signature a listener method exposes.
type DomainHandler[T any] func(ctx context.Context, payload *T) error

// Bind bridges watermill to a typed listener method: panic recovery so a
// bad payload never kills the consumer, poison-pill protection on decode,
// and a NACK (returned error) on business failure to trigger the retry
// middleware.
func Bind[T any](l *Listener, fn DomainHandler[T]) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		defer func() {
			if r := recover(); r != nil {
				l.logger.Error("listener panic recovered",
					"err", r,
					"stack", string(debug.Stack()),
					"msg_id", msg.UUID,
				)
			}
		}()

		payload := new(T)
		if err := json.Unmarshal(msg.Payload, payload); err != nil {
			// ACK: an undecodable payload will never decode on retry.
			l.logger.Error("listener decode failed", "err", err, "msg_id", msg.UUID)
			return nil
		}

		return fn(msg.Context(), payload)
	}
}
