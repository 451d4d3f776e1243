package events

import "context"

// Emitter publishes lifecycle events. Callers use it best-effort: log and
// ignore errors once the owning store mutation has committed.
type Emitter interface {
	// Publish sends message (JSON-serializable) to topic. Implementations
	// may block briefly; returns an error only on write failure.
	Publish(ctx context.Context, topic string, message any) error
	// Close releases resources (e.g. the Kafka writer). Safe to call if
	// already closed.
	Close() error
}

// NopEmitter discards all events. Used when no brokers are configured.
type NopEmitter struct{}

// Publish discards the message.
func (NopEmitter) Publish(ctx context.Context, topic string, message any) error { return nil }

// Close is a no-op.
func (NopEmitter) Close() error { return nil }
