package api

import (
	"sync"
	"time"
)

// RateLimiter provides token-bucket rate limiting keyed by an arbitrary
// string. It holds its own state and lifecycle: instantiate one per API so
// tests can create independent instances without cross-test leakage.
type RateLimiter struct {
	mu      sync.RWMutex
	buckets map[string]*TokenBucket
	stop    chan struct{}
}

// TokenBucket represents a token bucket for rate limiting.
type TokenBucket struct {
	tokens     int
	maxTokens  int
	refillRate int // tokens per minute
	lastRefill time.Time
	mu         sync.Mutex
}

// NewRateLimiter creates a new rate limiter and starts its cleanup loop.
// Call Close when done to stop the loop.
func NewRateLimiter() *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*TokenBucket),
		stop:    make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Close stops the cleanup goroutine.
func (rl *RateLimiter) Close() {
	close(rl.stop)
}

// NewTokenBucket creates a new token bucket.
func NewTokenBucket(maxTokens, refillRate int) *TokenBucket {
	return &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow checks if an action is allowed for the given key.
func (rl *RateLimiter) Allow(key string, maxTokens, refillRate int) bool {
	rl.mu.Lock()
	bucket, exists := rl.buckets[key]
	if !exists {
		bucket = NewTokenBucket(maxTokens, refillRate)
		rl.buckets[key] = bucket
	}
	rl.mu.Unlock()

	return bucket.Allow()
}

// Allow checks if a token can be consumed from the bucket.
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill)

	if elapsed > 0 {
		tokensToAdd := int(elapsed.Minutes()) * tb.refillRate
		if tokensToAdd > 0 {
			tb.tokens += tokensToAdd
			if tb.tokens > tb.maxTokens {
				tb.tokens = tb.maxTokens
			}
			tb.lastRefill = now
		}
	}

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// cleanup removes old unused buckets until Close is called.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := time.Now()
			for key, bucket := range rl.buckets {
				bucket.mu.Lock()
				if now.Sub(bucket.lastRefill) > 30*time.Minute {
					delete(rl.buckets, key)
				}
				bucket.mu.Unlock()
			}
			rl.mu.Unlock()
		}
	}
}

// Per-operation rate limits, tokens per minute with matching refill.
const (
	geocodeLimitPerMinute     = 30 // geocoding lookups per user
	spotCreateLimitPerMinute  = 10 // spot creations per user
	flagCreateLimitPerMinute  = 5  // flag reports per IP
	authLimitPerMinute        = 5  // login/register attempts per IP
	interactionLimitPerMinute = 30 // anonymous view pings per IP
)

// checkLimit consumes a token for the given operation and key, returning
// ErrRateLimitExceeded when the bucket is empty.
func (a *API) checkLimit(operation, key string, perMinute int) error {
	if !a.rateLimiter.Allow(operation+":"+key, perMinute, perMinute) {
		return ErrRateLimitExceeded
	}
	return nil
}
