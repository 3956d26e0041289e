package llm

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryConfig holds per-provider retry configuration.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts per provider.
	MaxAttempts int

	// BackoffBase is the initial backoff duration.
	BackoffBase time.Duration

	// BackoffMultiplier is applied to backoff on each retry.
	BackoffMultiplier float64

	// MaxBackoff caps the maximum backoff duration.
	MaxBackoff time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       2,
		BackoffBase:       time.Second,
		BackoffMultiplier: 2.0,
		MaxBackoff:        10 * time.Second,
	}
}

// backoff computes the exponential delay before attempt+1 with +/-25% jitter.
func (r RetryConfig) backoff(attempt int) time.Duration {
	multiplier := math.Pow(r.BackoffMultiplier, float64(attempt-1))
	d := time.Duration(float64(r.BackoffBase) * multiplier)
	if r.MaxBackoff > 0 && d > r.MaxBackoff {
		d = r.MaxBackoff
	}
	jitter := float64(d) * 0.25 * (rand.Float64()*2 - 1)
	return d + time.Duration(jitter)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
