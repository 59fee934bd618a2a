// Package retry provides a reusable bounded-retry policy with exponential
// backoff and a separate, longer backoff schedule for rate-limit errors.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/tkaraxa/sibyl/internal/core"
)

// Policy holds the retry schedule. The zero value is unusable; use Default
// or fill every field.
type Policy struct {
	// MaxAttempts bounds total tries, including the first.
	MaxAttempts int
	// BaseDelay is the first backoff for generic transient failures.
	BaseDelay time.Duration
	// Multiplier grows the delay each attempt.
	Multiplier float64
	// RateLimitDelay is the first backoff after a rate-limit error,
	// grown by the same multiplier.
	RateLimitDelay time.Duration
}

// Default mirrors the upstream API etiquette: three attempts, 1s/2s generic
// backoff, 60s/120s after rate limiting.
func Default() Policy {
	return Policy{
		MaxAttempts:    3,
		BaseDelay:      time.Second,
		Multiplier:     2.0,
		RateLimitDelay: 60 * time.Second,
	}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as non-retryable; Do returns the wrapped error
// immediately without consuming further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do runs op until it succeeds, a permanent error occurs, the context is
// canceled, or attempts run out. Rate-limit errors (core.ErrRateLimited)
// back off on the longer schedule.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op(ctx)
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		lastErr = err

		if attempt == p.MaxAttempts-1 {
			break
		}

		if err := sleep(ctx, p.delay(attempt, err)); err != nil {
			return err
		}
	}

	return core.WrapError(core.ErrFetchFailed,
		fmt.Errorf("failed after %d attempts: %w", p.MaxAttempts, lastErr))
}

func (p Policy) delay(attempt int, err error) time.Duration {
	base := p.BaseDelay
	if errors.Is(err, core.ErrRateLimited) {
		base = p.RateLimitDelay
	}
	return time.Duration(float64(base) * math.Pow(p.Multiplier, float64(attempt)))
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
