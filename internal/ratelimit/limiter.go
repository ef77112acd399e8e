// Package ratelimit provides token bucket rate limiting for outbound
// lifecycle API calls. The storage core is not rate limited here; blob
// traffic is bounded by the caller's own concurrency choices.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/paasops/paas-mcp/internal/constants"
)

// RateLimiter implements a token bucket. It allows bursts up to the
// bucket capacity, then refills at a fixed rate per second.
type RateLimiter struct {
	tokens     float64
	maxTokens  float64
	refillRate float64
	lastRefill time.Time
	mu         sync.Mutex
}

// NewRateLimiter creates a limiter refilling at tokensPerSecond with a
// burst capacity of burstSize. The bucket starts full.
func NewRateLimiter(tokensPerSecond, burstSize float64) *RateLimiter {
	return &RateLimiter{
		tokens:     burstSize,
		maxTokens:  burstSize,
		refillRate: tokensPerSecond,
		lastRefill: time.Now(),
	}
}

// NewReadScopeLimiter creates the limiter shared by read endpoints:
// environment and application listings, deployment and export status
// polls. Sized to 80% of the service's documented read quota.
func NewReadScopeLimiter() *RateLimiter {
	return NewRateLimiter(constants.ReadScopeRatePerSec, constants.ReadScopeBurst)
}

// NewWriteScopeLimiter creates the limiter for mutating endpoints:
// deployment triggers and database exports. Deliberately conservative;
// these calls are rare and expensive server-side.
func NewWriteScopeLimiter() *RateLimiter {
	return NewRateLimiter(constants.WriteScopeRatePerSec, constants.WriteScopeBurst)
}

// Wait blocks until a token is available or the context is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		if rl.TryAcquire() {
			return nil
		}

		waitDuration := rl.timeUntilNextToken()
		timer := time.NewTimer(waitDuration)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// TryAcquire attempts to take one token without blocking.
func (rl *RateLimiter) TryAcquire() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refillLocked()
	if rl.tokens >= 1.0 {
		rl.tokens -= 1.0
		return true
	}
	return false
}

// Available returns the current token count, for diagnostics.
func (rl *RateLimiter) Available() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refillLocked()
	return rl.tokens
}

func (rl *RateLimiter) refillLocked() {
	now := time.Now()
	elapsed := now.Sub(rl.lastRefill).Seconds()
	rl.tokens += elapsed * rl.refillRate
	if rl.tokens > rl.maxTokens {
		rl.tokens = rl.maxTokens
	}
	rl.lastRefill = now
}

// timeUntilNextToken calculates how long until one token is available.
func (rl *RateLimiter) timeUntilNextToken() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refillLocked()
	if rl.tokens >= 1.0 {
		return 0
	}
	missing := 1.0 - rl.tokens
	return time.Duration(missing / rl.refillRate * float64(time.Second))
}
