package routing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vietddude/shipbridge/internal/infra/rpc/fault"
)

func newTestRetrier(cfg RetryConfig) (*Retrier, *[]time.Duration) {
	r := NewRetrier(cfg)
	var slept []time.Duration
	r.Sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	r.Jitter = func() float64 { return 1.0 }
	return r, &slept
}

func TestDo_RetryableExhaustsAttempts(t *testing.T) {
	r, slept := newTestRetrier(RetryConfig{MaxAttempts: 3, InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second})

	want := fault.New(fault.KindUpstream, "boom")
	calls := 0
	_, err := Do(context.Background(), r, func(ctx context.Context) (int, error) {
		calls++
		return 0, want
	})

	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	if err != want {
		t.Fatalf("error was not propagated unchanged: %v", err)
	}
	// No sleep after the final attempt.
	if len(*slept) != 2 {
		t.Fatalf("slept %d times, want 2", len(*slept))
	}
	if (*slept)[0] != 100*time.Millisecond || (*slept)[1] != 200*time.Millisecond {
		t.Errorf("unexpected delays %v", *slept)
	}
}

func TestDo_NonRetryableStopsImmediately(t *testing.T) {
	r, slept := newTestRetrier(DefaultRetryConfig)

	calls := 0
	_, err := Do(context.Background(), r, func(ctx context.Context) (string, error) {
		calls++
		return "", fault.New(fault.KindValidation, "bad address")
	})

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if fault.KindOf(err) != fault.KindValidation {
		t.Fatalf("kind = %s", fault.KindOf(err))
	}
	if len(*slept) != 0 {
		t.Fatalf("should not sleep on non-retryable error")
	}
}

func TestDo_SucceedsAfterTransientFailure(t *testing.T) {
	r, _ := newTestRetrier(DefaultRetryConfig)

	calls := 0
	got, err := Do(context.Background(), r, func(ctx context.Context) (string, error) {
		calls++
		if calls < 2 {
			return "", fault.New(fault.KindTimeout, "slow")
		}
		return "ok", nil
	})

	if err != nil || got != "ok" || calls != 2 {
		t.Fatalf("got %q, %v after %d calls", got, err, calls)
	}
}

func TestDo_CircuitOpenIsNotRetried(t *testing.T) {
	r, _ := newTestRetrier(DefaultRetryConfig)

	calls := 0
	_, _ = Do(context.Background(), r, func(ctx context.Context) (int, error) {
		calls++
		return 0, fault.New(fault.KindCircuitOpen, "open")
	})
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDo_StopsWhenSleepCanceled(t *testing.T) {
	r := NewRetrier(RetryConfig{MaxAttempts: 5, InitialDelay: time.Hour, MaxDelay: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	want := errors.New("connection refused")
	_, err := Do(ctx, r, func(ctx context.Context) (int, error) {
		calls++
		return 0, want
	})
	if calls != 1 || err != want {
		t.Fatalf("calls=%d err=%v", calls, err)
	}
}

func TestBackoff(t *testing.T) {
	r, _ := newTestRetrier(RetryConfig{MaxAttempts: 10, InitialDelay: time.Second, MaxDelay: 5 * time.Second})

	tests := []struct {
		attempt int
		kind    fault.Kind
		want    time.Duration
	}{
		{1, fault.KindUpstream, time.Second},
		{2, fault.KindUpstream, 2 * time.Second},
		{3, fault.KindUpstream, 4 * time.Second},
		{4, fault.KindUpstream, 5 * time.Second},
		{9, fault.KindUpstream, 5 * time.Second},
	}
	for _, tt := range tests {
		if got := r.Backoff(tt.attempt, tt.kind); got != tt.want {
			t.Errorf("Backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestBackoff_JitterBounds(t *testing.T) {
	r := NewRetrier(RetryConfig{MaxAttempts: 3, InitialDelay: time.Second, MaxDelay: time.Minute})
	for i := 0; i < 200; i++ {
		d := r.Backoff(1, fault.KindTimeout)
		if d < 500*time.Millisecond || d > 1500*time.Millisecond {
			t.Fatalf("delay %v outside jitter range", d)
		}
	}
}

func TestBackoff_RateLimitedFloor(t *testing.T) {
	r, _ := newTestRetrier(RetryConfig{MaxAttempts: 3, InitialDelay: 10 * time.Millisecond, MaxDelay: time.Second})
	if got := r.Backoff(1, fault.KindRateLimited); got != fault.RateLimitedMinDelay {
		t.Fatalf("Backoff = %v, want %v", got, fault.RateLimitedMinDelay)
	}
}
