package outbox

import (
	"encoding/json"
	"fmt"
	"time"
)

const ContentTypeJSON = "application/json"

// OutboxMessage is an integration event waiting to be published to the broker.
// RoutingKey is the RabbitMQ queue or the Kafka topic.
type OutboxMessage struct {
	ID           int64
	QueueName    string
	ExchangeName string
	RoutingKey   string
	Payload      []byte
	ContentType  string
	RetryCount   int
	MaxRetries   int
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	NextRetryAt  time.Time
}

// NewJSONMessage marshals payload into a message that is due immediately.
func NewJSONMessage(routingKey string, maxRetries int, payload any, now time.Time) (OutboxMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return OutboxMessage{}, fmt.Errorf("failed to marshal outbox payload: %w", err)
	}

	return OutboxMessage{
		QueueName:   routingKey,
		RoutingKey:  routingKey,
		Payload:     body,
		ContentType: ContentTypeJSON,
		MaxRetries:  maxRetries,
		CreatedAt:   now,
		UpdatedAt:   now,
		NextRetryAt: now,
	}, nil
}
