package translator

import (
	"context"
	"math"
	"time"
)

// Backoff is an exponential delay schedule: Initial, Initial*Multiplier, ...
// capped at Max. A zero Multiplier means doubling.
type Backoff struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
}

// Delay returns the wait before retry number n (1-based).
func (b Backoff) Delay(n int) time.Duration {
	if n < 1 || b.Initial <= 0 {
		return 0
	}
	m := b.Multiplier
	if m < 1 {
		m = 2
	}
	d := float64(b.Initial) * math.Pow(m, float64(n-1))
	if b.Max > 0 && d > float64(b.Max) {
		return b.Max
	}
	return time.Duration(d)
}

// RetryPolicy parameterizes Retry. Attempts counts the first call, so 3
// means one call plus two retries.
type RetryPolicy struct {
	Attempts int
	Backoff  Backoff

	// Retryable reports whether err may succeed on another attempt. Nil
	// retries every error.
	Retryable func(err error) bool

	// OnFailure is called after every failed attempt.
	OnFailure func(attempt int, err error)
}

// Retry calls fn until it succeeds, fails with a non-retryable error, or the
// attempt budget is spent. It returns the number of attempts made and the
// last error. Waiting between attempts stops early when ctx is done.
func Retry(ctx context.Context, p RetryPolicy, fn func(ctx context.Context) error) (int, error) {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return attempt, nil
		}
		if p.OnFailure != nil {
			p.OnFailure(attempt, err)
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return attempt, err
		}
		if attempt == attempts {
			break
		}
		if waitErr := sleep(ctx, p.Backoff.Delay(attempt)); waitErr != nil {
			return attempt, waitErr
		}
	}
	return attempts, err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
