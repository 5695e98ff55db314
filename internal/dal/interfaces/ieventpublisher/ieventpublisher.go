package ieventpublisher

import (
	"context"

	"github.com/corray333/backend-labs/checkout/internal/service/models/outbox"
)

// IEventPublisher delivers an outbox message to the message broker.
type IEventPublisher interface {
	Publish(ctx context.Context, msg outbox.OutboxMessage) error
}
