package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tkaraxa/sibyl/internal/core"
)

func fastPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		BaseDelay:      time.Millisecond,
		Multiplier:     2.0,
		RateLimitDelay: 2 * time.Millisecond,
	}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDo_RetriesTransient(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection reset")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("timeout")
	})
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if !errors.Is(err, core.ErrFetchFailed) {
		t.Errorf("expected FETCH_FAILED, got %v", err)
	}
}

func TestDo_PermanentAborts(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), func(context.Context) error {
		calls++
		return Permanent(core.ErrUnsupportedAsset)
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retries on permanent errors)", calls)
	}
	if !errors.Is(err, core.ErrUnsupportedAsset) {
		t.Errorf("expected UNSUPPORTED_ASSET, got %v", err)
	}
}

func TestDo_RateLimitUsesLongSchedule(t *testing.T) {
	p := Policy{
		MaxAttempts:    2,
		BaseDelay:      time.Millisecond,
		Multiplier:     2.0,
		RateLimitDelay: 30 * time.Millisecond,
	}

	start := time.Now()
	_ = p.Do(context.Background(), func(context.Context) error {
		return core.ErrRateLimited
	})
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("elapsed %v, want at least the rate-limit delay", elapsed)
	}
}

func TestDo_ContextCancelDuringBackoff(t *testing.T) {
	p := Policy{
		MaxAttempts:    3,
		BaseDelay:      time.Minute,
		Multiplier:     2.0,
		RateLimitDelay: time.Minute,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	err := p.Do(ctx, func(context.Context) error {
		return errors.New("timeout")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDo_DelayGrowth(t *testing.T) {
	p := fastPolicy()

	generic := fmt.Errorf("wrapped: %w", errors.New("transient"))
	if d := p.delay(0, generic); d != time.Millisecond {
		t.Errorf("attempt 0 delay = %v, want 1ms", d)
	}
	if d := p.delay(2, generic); d != 4*time.Millisecond {
		t.Errorf("attempt 2 delay = %v, want 4ms", d)
	}

	limited := core.WrapError(core.ErrRateLimited, errors.New("429"))
	if d := p.delay(1, limited); d != 4*time.Millisecond {
		t.Errorf("rate-limit attempt 1 delay = %v, want 4ms", d)
	}
}

func TestPermanent_NilPassthrough(t *testing.T) {
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
}
