package resilience

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// transient marks an error as worth retrying (timeouts, connection drops).
// Business failures such as a declined payment must not carry the marker.
type transient struct {
	err error
}

func (t *transient) Error() string {
	return t.err.Error()
}

func (t *transient) Unwrap() error {
	return t.err
}

// MarkTransient wraps an error so the retry policy will retry it
func MarkTransient(err error) error {
	if err == nil {
		return nil
	}
	return &transient{err: err}
}

// IsTransient reports whether the error should be retried. Context deadline
// expiry counts as transient: the next attempt gets a fresh call timeout.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var t *transient
	return errors.As(err, &t)
}

// Retry reattempts a call a bounded number of times with exponential
// backoff, retrying transient errors only. It is composed inside the circuit
// breaker: a breaker rejection never reaches the retry loop, so no retries
// happen while the breaker is open.
type Retry struct {
	maxAttempts int
	baseDelay   time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

type RetryOption func(*Retry)

func WithMaxAttempts(n int) RetryOption {
	return func(r *Retry) { r.maxAttempts = n }
}

func WithBaseDelay(d time.Duration) RetryOption {
	return func(r *Retry) { r.baseDelay = d }
}

// WithSleep overrides the backoff sleeper
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) RetryOption {
	return func(r *Retry) { r.sleep = sleep }
}

// NewRetry creates a retry policy; defaults are 3 attempts backed off at
// 1s, 2s, 4s.
func NewRetry(opts ...RetryOption) *Retry {
	r := &Retry{
		maxAttempts: 3,
		baseDelay:   time.Second,
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Do runs fn until it succeeds, returns a non-transient error, or the
// attempt budget is spent. The context is checked between attempts; a caller
// abandoning the sequence cancels the context.
func (r *Retry) Do(ctx context.Context, fn func(context.Context) error) error {
	delay := r.baseDelay
	var err error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		if attempt == r.maxAttempts {
			break
		}
		if sleepErr := r.sleep(ctx, delay); sleepErr != nil {
			return sleepErr
		}
		delay *= 2
	}

	return errors.Wrapf(err, "gave up after %d attempts", r.maxAttempts)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
