// Package routing holds the retry loop that sits between the circuit breaker
// and a provider.
package routing

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/vietddude/shipbridge/internal/infra/rpc/fault"
)

// RetryConfig defines retry behavior.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
}

// DefaultRetryConfig provides sensible defaults.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:  3,
	InitialDelay: 500 * time.Millisecond,
	MaxDelay:     10 * time.Second,
}

// Retrier runs operations with bounded, jittered exponential backoff.
type Retrier struct {
	config RetryConfig

	// Sleep waits for d or until ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error
	// Jitter returns a multiplier in [0.5, 1.5).
	Jitter func() float64
}

// NewRetrier creates a retrier, filling zero config fields from DefaultRetryConfig.
func NewRetrier(config RetryConfig) *Retrier {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultRetryConfig.MaxAttempts
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = DefaultRetryConfig.InitialDelay
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = DefaultRetryConfig.MaxDelay
	}
	return &Retrier{
		config: config,
		Sleep:  sleepContext,
		Jitter: func() float64 { return 0.5 + rand.Float64() },
	}
}

// Config returns the effective configuration.
func (r *Retrier) Config() RetryConfig {
	return r.config
}

// Do executes op until it succeeds, fails with a non-retryable kind, or
// MaxAttempts is reached. The last error is returned unchanged.
func Do[T any](ctx context.Context, r *Retrier, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	for attempt := 1; ; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		classified := fault.Classify(0, nil, err)
		if !classified.Retryable || attempt >= r.config.MaxAttempts {
			return zero, err
		}

		delay := r.Backoff(attempt, classified.Kind)
		if sleepErr := r.Sleep(ctx, delay); sleepErr != nil {
			return zero, err
		}
	}
}

// Backoff returns the wait after the given 1-based failed attempt:
// min(MaxDelay, InitialDelay*2^(attempt-1)) * jitter, floored for rate limits.
func (r *Retrier) Backoff(attempt int, kind fault.Kind) time.Duration {
	delay := calculateBackoff(attempt, r.config)
	delay = time.Duration(float64(delay) * r.Jitter())

	if kind == fault.KindRateLimited && delay < fault.RateLimitedMinDelay {
		delay = fault.RateLimitedMinDelay
	}
	return delay
}

func calculateBackoff(attempt int, config RetryConfig) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(config.InitialDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}
	return time.Duration(delay)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
