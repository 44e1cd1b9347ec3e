// Package backoff computes how long to wait before retrying a failing
// background revalidation. Strategies are pure functions of the
// consecutive failure count, so one instance can be shared across any
// number of keys without synchronization.
package backoff

import (
	"math"
	"time"
)

// Strategy maps a consecutive-failure count to a wait duration.
// Implementations must be stateless: same input, same output.
type Strategy interface {
	Delay(consecutiveFailures int) time.Duration
}

// Defaults matching the reference scheduling behavior.
const (
	DefaultBackOffRate   = 10.0
	DefaultInitialExpiry = 6 * time.Second
	DefaultMaxExpiry     = 24 * time.Hour
)

// Exponential grows the delay geometrically from InitialExpiry by
// BackOffRate per additional failure, capped at MaxExpiry. The exponent
// is failures-1 so the first failure maps to InitialExpiry exactly.
type Exponential struct {
	BackOffRate   float64
	InitialExpiry time.Duration
	MaxExpiry     time.Duration
}

// NewExponential returns the default strategy: rate 10, initial delay
// 6s, maximum 24h.
func NewExponential() Exponential {
	return Exponential{
		BackOffRate:   DefaultBackOffRate,
		InitialExpiry: DefaultInitialExpiry,
		MaxExpiry:     DefaultMaxExpiry,
	}
}

func (e Exponential) Delay(consecutiveFailures int) time.Duration {
	if consecutiveFailures <= 0 {
		return 0
	}
	delay := float64(e.InitialExpiry) * math.Pow(e.BackOffRate, float64(consecutiveFailures-1))
	if delay < 0 {
		return 0
	}
	if math.IsInf(delay, 1) || delay > float64(e.MaxExpiry) {
		return e.MaxExpiry
	}
	return time.Duration(delay)
}
