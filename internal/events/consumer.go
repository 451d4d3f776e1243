package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// Handler processes one decoded message from a topic. A returned error is
// logged; the message is still committed (at-least-once, no poison loops).
type Handler func(ctx context.Context, message []byte) error

// Consumer reads lifecycle events from Kafka. The topic→handler mapping is
// fixed at construction; there is no registration after startup.
type Consumer struct {
	readers  map[string]*kafka.Reader
	handlers map[string]Handler
	log      *slog.Logger
}

// NewConsumer returns a consumer with one reader per handled topic, all in
// the given consumer group. Call Run to start and Close to tear down.
func NewConsumer(brokers []string, groupID string, handlers map[string]Handler, log *slog.Logger) *Consumer {
	readers := make(map[string]*kafka.Reader, len(handlers))
	for topic := range handlers {
		readers[topic] = kafka.NewReader(kafka.ReaderConfig{
			Brokers:        brokers,
			Topic:          topic,
			GroupID:        groupID,
			MinBytes:       1,
			MaxBytes:       10e6, // 10MB
			MaxWait:        time.Second,
			CommitInterval: time.Second,
		})
	}
	return &Consumer{readers: readers, handlers: handlers, log: log}
}

// Run consumes every subscribed topic until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	done := make(chan struct{})
	for topic, reader := range c.readers {
		go func(topic string, reader *kafka.Reader) {
			defer func() { done <- struct{}{} }()
			c.consume(ctx, topic, reader)
		}(topic, reader)
	}
	for range c.readers {
		<-done
	}
}

func (c *Consumer) consume(ctx context.Context, topic string, reader *kafka.Reader) {
	handler := c.handlers[topic]
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Error("kafka read failed", "topic", topic, "error", err)
			continue
		}
		if len(msg.Value) == 0 {
			c.log.Warn("empty message", "topic", topic, "partition", msg.Partition)
			continue
		}
		if err := handler(ctx, msg.Value); err != nil {
			c.log.Error("event handler failed", "topic", topic, "partition", msg.Partition, "error", err)
		}
	}
}

// Close closes all readers. Safe to call after Run returns.
func (c *Consumer) Close() error {
	var firstErr error
	for _, reader := range c.readers {
		if err := reader.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
