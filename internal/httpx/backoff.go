package httpx

import (
	"math/rand/v2"
	"time"
)

// Backoff computes exponential delays with optional jitter.
type Backoff struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Jitter    float64
}

// NewBackoff returns a Backoff, substituting defaults for invalid values.
func NewBackoff(base, maxDelay time.Duration, jitter float64) Backoff {
	if base <= 0 {
		base = 50 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = time.Second
	}
	return Backoff{
		BaseDelay: base,
		MaxDelay:  maxDelay,
		Jitter:    min(max(jitter, 0), 1),
	}
}

// ForAttempt returns the delay before retry number attempt+1.
func (b Backoff) ForAttempt(attempt int) time.Duration {
	delay := b.BaseDelay
	for i := 0; i < attempt && delay < b.MaxDelay; i++ {
		delay *= 2
	}
	delay = min(delay, b.MaxDelay)
	if b.Jitter == 0 {
		return delay
	}
	factor := 1 + (rand.Float64()*2-1)*b.Jitter
	return time.Duration(float64(delay) * factor)
}
