// Package ratelimit throttles MCP tool calls with one token bucket per tool.
package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrRateLimited is returned by CheckLimit when a tool is over its limit.
var ErrRateLimited = errors.New("rate limit exceeded")

// Limiter keeps a token bucket per key, all sharing one rate and burst. It is
// safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	rate    rate.Limit
	burst   int
	now     func() time.Time
}

// NewLimiter returns a limiter refilling r tokens per second up to burst.
// Buckets start full.
func NewLimiter(r float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*rate.Limiter),
		rate:    rate.Limit(r),
		burst:   burst,
		now:     time.Now,
	}
}

func (l *Limiter) bucket(key string) *rate.Limiter {
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.rate, l.burst)
		l.buckets[key] = b
	}
	return b
}

// Allow takes a token from key's bucket and reports whether one was available.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bucket(key).AllowN(l.now(), 1)
}

// RetryAfter returns how long until key's bucket holds a whole token again:
// 0 when one is available now, -1 when the bucket never refills.
func (l *Limiter) RetryAfter(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	tokens := l.bucket(key).TokensAt(l.now())
	if tokens >= 1 {
		return 0
	}
	if l.rate <= 0 {
		return -1
	}
	return time.Duration((1 - tokens) / float64(l.rate) * float64(time.Second))
}

// ToolLimiters maps tool names to their limiters.
type ToolLimiters map[string]*Limiter

// NewToolLimiters returns the default limits. Stepping and resetting rebuild
// or advance the whole simulation; queries only copy state.
func NewToolLimiters() ToolLimiters {
	return ToolLimiters{
		"orbitsim_step":   NewLimiter(2.0, 5),       // 120/minute, burst 5
		"orbitsim_reset":  NewLimiter(10.0/60.0, 2), // 10/minute, burst 2
		"orbitsim_bodies": NewLimiter(5.0, 20),      // 300/minute, burst 20
		"orbitsim_trail":  NewLimiter(2.0, 10),      // 120/minute, burst 10
	}
}

// CheckLimit takes a token for toolName. It returns an error wrapping
// ErrRateLimited, with a retry hint when the bucket refills, if none is left.
// Tools without a limiter are never limited.
func CheckLimit(limiters ToolLimiters, toolName string) error {
	limiter, ok := limiters[toolName]
	if !ok {
		return nil
	}
	if limiter.Allow(toolName) {
		return nil
	}

	if wait := limiter.RetryAfter(toolName); wait > 0 {
		return fmt.Errorf("%w for %s, retry in %s", ErrRateLimited, toolName, wait.Round(time.Millisecond))
	}
	return fmt.Errorf("%w for %s", ErrRateLimited, toolName)
}
