package resilience

import (
	"context"
	"time"

	crerr "github.com/cockroachdb/errors"
)

// ErrTransient marks failures worth another attempt: network errors,
// upstream 5xx and 429 responses.
var ErrTransient = crerr.New("transient failure")

// MarkTransient tags err so IsTransient reports true for it.
func MarkTransient(err error) error {
	if err == nil {
		return nil
	}
	return crerr.Mark(err, ErrTransient)
}

func IsTransient(err error) bool {
	return err != nil && crerr.Is(err, ErrTransient)
}

// RetryPolicy is a bounded retry loop with linear backoff.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Retryable classifies errors; nil means IsTransient.
	Retryable func(error) bool

	sleep func(context.Context, time.Duration) error
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    10 * time.Second,
	}
}

// NoRetry runs the operation exactly once.
func NoRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1}
}

// WithSleep swaps the wait function, mostly for tests.
func (p RetryPolicy) WithSleep(sleep func(context.Context, time.Duration) error) RetryPolicy {
	p.sleep = sleep
	return p
}

func (p RetryPolicy) ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if crerr.Is(err, context.Canceled) || crerr.Is(err, context.DeadlineExceeded) {
		return false
	}
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	return IsTransient(err)
}

// Do runs fn until it succeeds, returns a terminal error, or the attempt
// budget is spent. The last error is returned unchanged.
func (p RetryPolicy) Do(ctx context.Context, fn func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = Sleep
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil || !p.ShouldRetry(err) || attempt == attempts {
			return err
		}
		if waitErr := sleep(ctx, p.backoff(attempt)); waitErr != nil {
			return waitErr
		}
	}
	return err
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	delay := time.Duration(attempt) * p.BaseDelay
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
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
