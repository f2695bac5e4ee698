package events

import (
	"context"
	"log/slog"
	"sync"
)

// LocalBus stands in for Kafka on single-process runs. Published events are
// logged and buffered until the consumer worker polls them.
type LocalBus struct {
	logger *slog.Logger
	mu     sync.Mutex
	queue  []Message
}

func NewLocalBus(logger *slog.Logger) *LocalBus {
	return &LocalBus{logger: logger}
}

func (b *LocalBus) Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error {
	b.mu.Lock()
	b.queue = append(b.queue, Message{Topic: eventType, EventType: eventType, Key: partitionKey, Payload: append([]byte(nil), payload...)})
	b.mu.Unlock()
	b.logger.InfoContext(ctx, "event published",
		"module", "events.publisher",
		"layer", "adapter",
		"operation", "publish",
		"outcome", "success",
		"event_type", eventType,
		"partition_key", partitionKey,
		"payload_bytes", len(payload),
	)
	return nil
}

func (b *LocalBus) Poll(_ context.Context, max int) ([]Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if max <= 0 || max > len(b.queue) {
		max = len(b.queue)
	}
	out := make([]Message, max)
	copy(out, b.queue[:max])
	b.queue = b.queue[max:]
	return out, nil
}
