package rate

import (
	"math"
	"sync"

	"golang.org/x/time/rate"

	"github.com/code-payments/instruction-server/pkg/cache"
)

// maxTrackedKeys bounds the number of token buckets a local limiter keeps.
// The least recently seen key is forgotten first.
const maxTrackedKeys = 100_000

// Limiter limits operations based on a provided key.
type Limiter interface {
	Allow(key string) (bool, error)
}

// LimiterCtor allows the creation of a Limiter using a provided rate.
type LimiterCtor func(rate float64) Limiter

// LocalLimiterCtor is a LimiterCtor for in memory limiters.
func LocalLimiterCtor(limit float64) Limiter {
	return NewLocalRateLimiter(rate.Limit(limit))
}

type localRateLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	buckets cache.Cache
}

// NewLocalRateLimiter returns an in memory limiter that keeps one token bucket
// per key. The bucket holds one second worth of tokens, and never less than one.
func NewLocalRateLimiter(limit rate.Limit) Limiter {
	return newLocalRateLimiter(limit, maxTrackedKeys)
}

func newLocalRateLimiter(limit rate.Limit, maxKeys int) *localRateLimiter {
	burst := int(math.Ceil(float64(limit)))
	if burst < 1 {
		burst = 1
	}

	return &localRateLimiter{
		limit:   limit,
		burst:   burst,
		buckets: cache.NewCache(maxKeys),
	}
}

// Allow implements limiter.Allow.
func (l *localRateLimiter) Allow(key string) (bool, error) {
	l.mu.Lock()
	var bucket *rate.Limiter
	if cached, ok := l.buckets.Retrieve(key); ok {
		bucket = cached.(*rate.Limiter)
	} else {
		bucket = rate.NewLimiter(l.limit, l.burst)
		l.buckets.Insert(key, bucket, 1)
	}
	l.mu.Unlock()

	return bucket.Allow(), nil
}

// NoLimiter never limits operations
type NoLimiter struct {
}

// Allow implements limiter.Allow.
func (n *NoLimiter) Allow(key string) (bool, error) {
	return true, nil
}
