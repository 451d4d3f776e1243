package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaEmitter implements Emitter using segmentio/kafka-go. One writer
// serves all topics; the topic is set per message.
type KafkaEmitter struct {
	writer *kafka.Writer
}

// NewKafkaEmitter creates a Kafka emitter for the given brokers.
// Call Close when shutting down.
func NewKafkaEmitter(brokers []string) (*KafkaEmitter, error) {
	if len(brokers) == 0 {
		return nil, errors.New("events: at least one broker is required")
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		// The service publishes to topics it does not administer; let the
		// broker create them on first write in development setups.
		AllowAutoTopicCreation: true,
	}
	return &KafkaEmitter{writer: writer}, nil
}

// Publish serializes message as JSON and writes it to topic. A short write
// timeout keeps slow brokers from blocking callers indefinitely.
func (e *KafkaEmitter) Publish(ctx context.Context, topic string, message any) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return e.writer.WriteMessages(writeCtx, kafka.Message{
		Topic: topic,
		Value: payload,
	})
}

// Close closes the Kafka writer. Safe to call multiple times.
func (e *KafkaEmitter) Close() error {
	if e == nil || e.writer == nil {
		return nil
	}
	return e.writer.Close()
}
