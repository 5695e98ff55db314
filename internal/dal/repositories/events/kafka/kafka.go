package kafkapublisher

import (
	"context"
	"fmt"
	"time"

	"github.com/corray333/backend-labs/checkout/internal/dal/kafka"
	"github.com/corray333/backend-labs/checkout/internal/service/models/outbox"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher delivers outbox messages to Kafka. The routing key is the topic.
type Publisher struct {
	writer *kafkago.Writer
}

// NewPublisher creates a new Kafka publisher.
func NewPublisher(client *kafka.Client) *Publisher {
	return &Publisher{writer: client.NewWriter()}
}

// Publish writes the message, keyed by routing key so that events of one topic stay ordered.
func (p *Publisher) Publish(ctx context.Context, msg outbox.OutboxMessage) error {
	err := p.writer.WriteMessages(ctx, kafkago.Message{
		Topic: msg.RoutingKey,
		Key:   []byte(msg.RoutingKey),
		Value: msg.Payload,
		Headers: []kafkago.Header{
			{Key: "content-type", Value: []byte(msg.ContentType)},
		},
		Time: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to publish to kafka: %w", err)
	}

	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
