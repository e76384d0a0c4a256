package api

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestRateLimiterAllow(t *testing.T) {
	c := qt.New(t)
	rl := NewRateLimiter()
	defer rl.Close()

	// A bucket of 3 allows exactly 3 requests in the same window.
	for i := 0; i < 3; i++ {
		c.Assert(rl.Allow("geocode:user1", 3, 3), qt.IsTrue)
	}
	c.Assert(rl.Allow("geocode:user1", 3, 3), qt.IsFalse)

	// Other keys have independent buckets.
	c.Assert(rl.Allow("geocode:user2", 3, 3), qt.IsTrue)
	c.Assert(rl.Allow("flagCreate:user1", 3, 3), qt.IsTrue)
}

func TestTokenBucketRefill(t *testing.T) {
	c := qt.New(t)

	tb := NewTokenBucket(2, 60)
	c.Assert(tb.Allow(), qt.IsTrue)
	c.Assert(tb.Allow(), qt.IsTrue)
	c.Assert(tb.Allow(), qt.IsFalse)

	// Refill accrues in whole minutes; simulate the passage of time instead
	// of sleeping.
	tb.mu.Lock()
	tb.lastRefill = time.Now().Add(-time.Minute)
	tb.mu.Unlock()
	c.Assert(tb.Allow(), qt.IsTrue)
}

func TestTokenBucketCapping(t *testing.T) {
	c := qt.New(t)

	// A long idle period must not accumulate more than maxTokens.
	tb := NewTokenBucket(2, 60)
	tb.mu.Lock()
	tb.lastRefill = time.Now().Add(-time.Hour)
	tb.mu.Unlock()

	c.Assert(tb.Allow(), qt.IsTrue)
	c.Assert(tb.Allow(), qt.IsTrue)
	c.Assert(tb.Allow(), qt.IsFalse)
}

func TestCheckLimit(t *testing.T) {
	c := qt.New(t)
	a := &API{rateLimiter: NewRateLimiter()}
	defer a.rateLimiter.Close()

	for i := 0; i < flagCreateLimitPerMinute; i++ {
		c.Assert(a.checkLimit("flagCreate", "10.0.0.1", flagCreateLimitPerMinute), qt.IsNil)
	}
	err := a.checkLimit("flagCreate", "10.0.0.1", flagCreateLimitPerMinute)
	c.Assert(err, qt.Equals, ErrRateLimitExceeded)

	// A different IP is unaffected.
	c.Assert(a.checkLimit("flagCreate", "10.0.0.2", flagCreateLimitPerMinute), qt.IsNil)
}
