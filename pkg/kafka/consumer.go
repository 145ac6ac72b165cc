// Package kafka provides Kafka producer and consumer clients backed by
// segmentio/kafka-go. Payloads are JSON; string headers carry request
// metadata such as the request id.
package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/oarkflow/json"
	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/config"
)

// Message is the part of a Kafka record handed to a MessageHandler.
type Message struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// MessageHandler processes one message. A non-nil error leaves the offset
// uncommitted.
type MessageHandler func(ctx context.Context, msg Message) error

type Consumer struct {
	reader  *kafka.Reader
	logger  *slog.Logger
	handler MessageHandler
}

func NewConsumer(cfg config.KafkaConfig, topic string, handler MessageHandler) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       topic,
		GroupID:     cfg.ConsumerGroup,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.LastOffset,
	})
	return &Consumer{
		reader:  r,
		logger:  slog.Default().With("component", "kafka-consumer", "topic", topic),
		handler: handler,
	}
}

// Start fetches and handles messages until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping", "reason", ctx.Err())
				return nil
			}
			c.logger.Error("failed to fetch message", "error", err)
			continue
		}
		c.logger.Debug("message received",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"value_size", len(msg.Value),
		)
		if err := c.handler(ctx, toMessage(msg)); err != nil {
			c.logger.Error("failed to process message",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
			continue
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("failed to commit message",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

func toMessage(msg kafka.Message) Message {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return Message{Key: msg.Key, Value: msg.Value, Headers: headers}
}

// DecodeJSON unmarshals a message value into T.
func DecodeJSON[T any](value []byte) (T, error) {
	var result T
	if err := json.Unmarshal(value, &result); err != nil {
		return result, fmt.Errorf("decoding kafka message: %w", err)
	}
	return result, nil
}
