package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	"github.com/viralforge/trender/internal/ports"
)

type BreakerSettings struct {
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
}

// BreakerPublisher stops calling the broker after repeated failures. While
// open, publishes fail fast and the outbox keeps the rows for a later pass.
type BreakerPublisher struct {
	next    ports.EventPublisher
	breaker *gobreaker.CircuitBreaker
}

func NewBreakerPublisher(logger *slog.Logger, next ports.EventPublisher, cfg BreakerSettings) *BreakerPublisher {
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}
	settings := gobreaker.Settings{
		Name:        "event-publisher",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"module", "events.publisher",
				"layer", "adapter",
				"operation", "breaker_state",
				"outcome", to.String(),
				"breaker", name,
				"from", from.String(),
			)
		},
	}
	return &BreakerPublisher{next: next, breaker: gobreaker.NewCircuitBreaker(settings)}
}

func (p *BreakerPublisher) Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error {
	_, err := p.breaker.Execute(func() (interface{}, error) {
		return nil, p.next.Publish(ctx, eventType, payload, partitionKey)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("publisher unavailable: %w", err)
	}
	return err
}

func (p *BreakerPublisher) State() gobreaker.State {
	return p.breaker.State()
}

var _ ports.EventPublisher = (*BreakerPublisher)(nil)
