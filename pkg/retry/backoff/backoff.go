// Package backoff provides delay schedules for retry.
package backoff

import (
	"math"
	"math/rand"
	"time"
)

// Strategy returns the delay before the next attempt. attempts starts at 1.
type Strategy func(attempts uint) time.Duration

// Constant always waits interval.
func Constant(interval time.Duration) Strategy {
	return func(uint) time.Duration {
		return interval
	}
}

// Linear waits baseDelay * attempts.
//
// Ex. Linear(2*time.Second) = 2s, 4s, 6s, 8s, ...
func Linear(baseDelay time.Duration) Strategy {
	return func(attempts uint) time.Duration {
		return saturate(float64(baseDelay) * float64(attempts))
	}
}

// Exponential waits baseDelay * base^(attempts - 1).
//
// Ex. Exponential(2*time.Second, 3) = 2s, 6s, 18s, 54s, ...
func Exponential(baseDelay time.Duration, base float64) Strategy {
	return func(attempts uint) time.Duration {
		if attempts == 0 {
			attempts = 1
		}
		return saturate(float64(baseDelay) * math.Pow(base, float64(attempts-1)))
	}
}

// BinaryExponential is Exponential with a base of 2.
//
// Ex. BinaryExponential(2*time.Second) = 2s, 4s, 8s, 16s, ...
func BinaryExponential(baseDelay time.Duration) Strategy {
	return Exponential(baseDelay, 2)
}

// Capped limits the delay produced by s to max.
func Capped(s Strategy, max time.Duration) Strategy {
	return func(attempts uint) time.Duration {
		if d := s(attempts); d < max {
			return d
		}
		return max
	}
}

// Jittered spreads the delay produced by s uniformly within +/- jitter of
// its value. A delay of 100ms with a jitter of 0.1 yields 90ms to 110ms.
func Jittered(s Strategy, jitter float64) Strategy {
	return func(attempts uint) time.Duration {
		d := float64(s(attempts))
		return saturate(d * (1 + (rand.Float64()*jitter*2 - jitter)))
	}
}

func saturate(d float64) time.Duration {
	if d >= math.MaxInt64 || math.IsNaN(d) {
		return math.MaxInt64
	}
	if d < 0 {
		return 0
	}
	return time.Duration(d)
}
