package embedding

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerConfig tunes the circuit breaker around the embedding backend.
type BreakerConfig struct {
	Name                string
	MaxHalfOpenRequests uint32
	Interval            time.Duration
	OpenTimeout         time.Duration
	ConsecutiveFailures uint32
}

// BreakerEmbedder fails fast with ErrUnavailable while the backend is unhealthy.
type BreakerEmbedder struct {
	next Embedder
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerEmbedder wraps next with a gobreaker circuit breaker.
func NewBreakerEmbedder(next Embedder, cfg BreakerConfig, logger *zap.Logger) *BreakerEmbedder {
	if cfg.Name == "" {
		cfg.Name = "embedding-api"
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	threshold := cfg.ConsecutiveFailures
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxHalfOpenRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("embedding circuit state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		// Caller cancellations are not backend failures.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}
	return &BreakerEmbedder{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

// EmbedDocuments delegates through the breaker.
func (b *BreakerEmbedder) EmbedDocuments(ctx context.Context, docs []Document) ([][]float32, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.EmbedDocuments(ctx, docs)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, Unavailable(err)
		}
		return nil, err
	}
	vectors, _ := out.([][]float32)
	return vectors, nil
}

// Open reports whether the breaker is currently rejecting calls.
func (b *BreakerEmbedder) Open() bool {
	return b.cb.State() == gobreaker.StateOpen
}
