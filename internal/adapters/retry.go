package adapters

import (
	"math"
	"time"
)

// RetryPolicy bounds the retry loop around one source call. A source is
// attempted at most MaxRetries+1 times, with exponential backoff between
// attempts.
type RetryPolicy struct {
	MaxRetries        int
	InitialDelay      time.Duration
	BackoffMultiplier float64
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        2,
		InitialDelay:      500 * time.Millisecond,
		BackoffMultiplier: 2,
	}
}

// Backoff returns the delay before retry number attempt (0-based), i.e.
// initialDelay * multiplier^attempt.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	mult := math.Pow(p.BackoffMultiplier, float64(attempt))
	return time.Duration(float64(p.InitialDelay) * mult)
}
