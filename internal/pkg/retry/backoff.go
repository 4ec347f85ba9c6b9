// Package retry wraps asynchronous operations with bounded retry,
// exponential backoff, jitter, and a non-retryable-error classifier.
package retry

import (
	"math"
	"math/rand"
	"time"
)

// Backoff computes the delay to wait after a failed attempt. The zero
// value is not usable; start from DefaultBackoff.
type Backoff struct {
	InitialDelay   time.Duration
	Multiplier     float64
	MaxDelay       time.Duration
	JitterFraction float64

	// Rand supplies jitter randomness. Nil uses the shared math/rand
	// source; tests inject a seeded source for deterministic delays.
	Rand *rand.Rand
}

// DefaultBackoff returns the standard schedule: 1s initial, doubling,
// capped at 30s, ±25% jitter.
func DefaultBackoff() Backoff {
	return Backoff{
		InitialDelay:   1 * time.Second,
		Multiplier:     2,
		MaxDelay:       30 * time.Second,
		JitterFraction: 0.25,
	}
}

// Delay returns how long to wait before the attempt after the given one.
// attempt is 1-based and names the attempt that just failed. The exponent
// uses the attempt index directly, so attempt 1 already waits roughly
// initial*multiplier; with defaults that lands in [1.5s, 2.5s].
//
// Jitter is symmetric (± JitterFraction of the capped delay) so that
// concurrent callers retrying at the same moment spread out instead of
// stampeding together.
func (b Backoff) Delay(attempt int) time.Duration {
	base := float64(b.InitialDelay) * math.Pow(b.Multiplier, float64(attempt))

	capped := base
	if capped > float64(b.MaxDelay) {
		capped = float64(b.MaxDelay)
	}

	jitter := capped * b.JitterFraction * (2*b.float64() - 1)

	d := time.Duration(math.Round(capped + jitter))
	if d < 0 {
		d = 0
	}
	return d
}

func (b Backoff) float64() float64 {
	if b.Rand != nil {
		return b.Rand.Float64()
	}
	return rand.Float64()
}
