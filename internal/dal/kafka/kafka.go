package kafka

import (
	"log/slog"
	"strings"

	"github.com/segmentio/kafka-go"
	"github.com/spf13/viper"
)

// Client holds the broker list of the Kafka cluster.
type Client struct {
	Brokers []string
}

// MustNewClient creates a new Kafka client from the kafka.brokers setting.
func MustNewClient() *Client {
	brokers := make([]string, 0)
	for _, b := range viper.GetStringSlice("kafka.brokers") {
		for _, part := range strings.Split(b, ",") {
			if part = strings.TrimSpace(part); part != "" {
				brokers = append(brokers, part)
			}
		}
	}
	if len(brokers) == 0 {
		panic("kafka.brokers is not set in config")
	}

	slog.Info("Kafka configured", "brokers", brokers)

	return &Client{Brokers: brokers}
}

// NewWriter returns a writer that takes the topic from each message.
func (c *Client) NewWriter() *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(c.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: viper.GetBool("kafka.allow_auto_topic_creation"),
	}
}
