package db

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

const (
	defaultRetryAttempts    = 3
	defaultInitialInterval  = 200 * time.Millisecond
	defaultMaxRetryInterval = 5 * time.Second
)

// Retrier retries transient store failures with exponential backoff. Every
// query and exec on the Pool funnels through it, so individual call sites
// never hand-roll retry loops.
type Retrier struct {
	attempts int
	logger   zerolog.Logger
}

// NewRetrier builds a Retrier with the given retry budget. attempts is the
// number of retries after the first try; <=0 falls back to the default.
func NewRetrier(attempts int, logger zerolog.Logger) *Retrier {
	if attempts <= 0 {
		attempts = defaultRetryAttempts
	}
	return &Retrier{attempts: attempts, logger: logger}
}

// Do runs fn, retrying only Transient errors until the budget is exhausted.
// The original error surfaces once the budget runs out; non-transient
// errors surface immediately.
func (r *Retrier) Do(ctx context.Context, op string, fn func() error) error {
	if r == nil {
		return fn()
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = defaultInitialInterval
	policy.MaxInterval = defaultMaxRetryInterval

	attempt := 0
	wrapped := func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return backoff.Permanent(err)
		}
		attempt++
		r.logger.Warn().
			Err(err).
			Str("op", op).
			Int("attempt", attempt).
			Msg("transient store error, retrying")
		return err
	}

	return backoff.Retry(
		wrapped,
		backoff.WithContext(backoff.WithMaxRetries(policy, uint64(r.attempts)), ctx),
	)
}
