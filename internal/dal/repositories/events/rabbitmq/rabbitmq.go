package rabbitmqpublisher

import (
	"context"
	"fmt"
	"sync"

	"github.com/corray333/backend-labs/checkout/internal/dal/rabbitmq"
	"github.com/corray333/backend-labs/checkout/internal/service/models/outbox"
	"github.com/streadway/amqp"
)

// Publisher delivers outbox messages to RabbitMQ.
// Queues are declared lazily, once per routing key.
type Publisher struct {
	client   *rabbitmq.Client
	mu       sync.Mutex
	declared map[string]struct{}
}

// NewPublisher creates a new RabbitMQ publisher.
func NewPublisher(client *rabbitmq.Client) *Publisher {
	return &Publisher{
		client:   client,
		declared: make(map[string]struct{}),
	}
}

// Publish sends the message to its exchange, or to the queue named by its routing key
// on the default exchange.
func (p *Publisher) Publish(_ context.Context, msg outbox.OutboxMessage) error {
	if msg.ExchangeName == "" {
		if err := p.declare(msg.RoutingKey); err != nil {
			return err
		}
	}

	err := p.client.Channel().Publish(
		msg.ExchangeName,
		msg.RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  msg.ContentType,
			DeliveryMode: amqp.Persistent,
			Body:         msg.Payload,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to rabbitmq: %w", err)
	}

	return nil
}

func (p *Publisher) declare(queue string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.declared[queue]; ok {
		return nil
	}

	_, err := p.client.DeclareQueue(rabbitmq.DeclareQueueConfig{
		Name:    queue,
		Durable: true,
	})
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	p.declared[queue] = struct{}{}

	return nil
}
