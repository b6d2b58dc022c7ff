package translator

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// Breaker stops calling the remote service after a run of consecutive
// service-unavailable failures, failing fast until the cooldown elapses.
// Processing failures and cancelled calls do not count against the service.
type Breaker struct {
	next Translator
	cb   *gobreaker.CircuitBreaker
}

func NewBreaker(next Translator, threshold uint32, cooldown time.Duration, logger zerolog.Logger) *Breaker {
	if threshold == 0 {
		threshold = 1
	}
	logger = logger.With().Str("component", "breaker").Logger()

	settings := gobreaker.Settings{
		Name:        "translation-api",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, ErrServiceUnavailable) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	}

	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *Breaker) Translate(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", unavailable(0, err)
	}
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Translate(ctx, text)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", unavailable(0, err)
	}
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
