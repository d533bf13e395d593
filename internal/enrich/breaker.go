package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"codeberg.org/snonux/hanzicards/internal/vocab"
)

// Breaker stops calling a provider after repeated failures. While the
// circuit is open every call fails fast with ErrNetwork.
type Breaker struct {
	next Enricher
	cb   *gobreaker.CircuitBreaker
}

// NewBreaker wraps next in a circuit breaker that opens after failures
// consecutive failed requests. Parse errors do not count: the service
// answered, the answer was just unusable.
func NewBreaker(next Enricher, failures uint32, logger *slog.Logger) *Breaker {
	if logger == nil {
		logger = slog.Default()
	}

	settings := gobreaker.Settings{
		Name:        next.Name(),
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrParse) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("enrichment circuit breaker state changed",
				slog.String("provider", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	}

	return &Breaker{
		next: next,
		cb:   gobreaker.NewCircuitBreaker(settings),
	}
}

// Name returns the wrapped provider name
func (b *Breaker) Name() string {
	return b.next.Name()
}

// State reports the current breaker state ("closed", "half-open", "open").
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// Enrich calls the wrapped provider through the breaker
func (b *Breaker) Enrich(ctx context.Context, term string) (vocab.WordDetails, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Enrich(ctx, term)
	})
	if err != nil {
		return vocab.WordDetails{}, b.wrap(err)
	}
	return res.(vocab.WordDetails), nil
}

// EnrichChunk calls the wrapped provider through the breaker
func (b *Breaker) EnrichChunk(ctx context.Context, terms []string) ([]vocab.DetailedWord, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.EnrichChunk(ctx, terms)
	})
	if err != nil {
		return nil, b.wrap(err)
	}
	words, _ := res.([]vocab.DetailedWord)
	return words, nil
}

func (b *Breaker) wrap(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s: %w", ErrNetwork, b.next.Name(), err)
	}
	return err
}
