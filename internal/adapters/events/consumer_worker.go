package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/viralforge/trender/internal/domain"
	"github.com/viralforge/trender/internal/ports"
)

type Message struct {
	Topic     string
	EventType string
	Key       string
	Payload   []byte
}

type Consumer interface {
	Poll(ctx context.Context, max int) ([]Message, error)
}

// TradeEventHandler is implemented by application.Service.
type TradeEventHandler interface {
	HandleTradeEvent(ctx context.Context, ev ports.ConsumedEvent) error
}

type ConsumerWorker struct {
	logger   *slog.Logger
	consumer Consumer
	handler  TradeEventHandler
	interval time.Duration
}

func NewConsumerWorker(logger *slog.Logger, consumer Consumer, handler TradeEventHandler, interval time.Duration) *ConsumerWorker {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &ConsumerWorker{
		logger: logger, consumer: consumer, handler: handler, interval: interval,
	}
}

func (w *ConsumerWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.processOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.ErrorContext(ctx, "consumer iteration failed",
				"module", "events.consumer_worker",
				"layer", "adapter",
				"operation", "process_once",
				"outcome", "failure",
				"error", err,
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *ConsumerWorker) processOnce(ctx context.Context) error {
	msgs, err := w.consumer.Poll(ctx, 50)
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		err := w.handler.HandleTradeEvent(ctx, ports.ConsumedEvent{
			Topic:        msg.Topic,
			EventType:    msg.EventType,
			PartitionKey: msg.Key,
			Payload:      msg.Payload,
		})
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrUnsupportedEventType):
			w.logger.DebugContext(ctx, "event skipped", "topic", msg.Topic, "event_type", msg.EventType)
		default:
			w.logger.WarnContext(ctx, "failed to handle trade event",
				"module", "events.consumer_worker",
				"layer", "adapter",
				"operation", "handle_trade_event",
				"outcome", "failure",
				"topic", msg.Topic,
				"partition_key", msg.Key,
				"error", err,
			)
		}
	}
	return nil
}
