package webhook

import (
	"math"
	"math/rand"
	"time"
)

// RetryPolicy controls delivery retries.
type RetryPolicy struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryPolicy retries three times starting at one second.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// backoff returns the delay before the given attempt (1-based), exponential
// with a ±10% jitter, capped at MaxDelay.
func (p *RetryPolicy) backoff(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}

	jitter := delay * 0.1
	delay += (rand.Float64()*2 - 1) * jitter

	return time.Duration(delay)
}

func isRetryableStatus(code int) bool {
	switch code {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
