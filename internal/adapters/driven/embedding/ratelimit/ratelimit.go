// Package ratelimit throttles requests to remote embedding providers.
package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HeaderRetryAfter is the retry-after header (seconds).
const HeaderRetryAfter = "Retry-After"

// DefaultBackoff is used when a throttled response carries no Retry-After.
const DefaultBackoff = time.Second

// RateLimiter combines a proactive token bucket with the provider's
// Retry-After hints.
type RateLimiter struct {
	mu      sync.Mutex
	bucket  *rate.Limiter
	retryAt time.Time
	now     func() time.Time
}

// New creates a limiter allowing requestsPerSecond. Zero or less disables
// proactive throttling.
func New(requestsPerSecond float64) *RateLimiter {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &RateLimiter{
		bucket: rate.NewLimiter(limit, 1),
		now:    time.Now,
	}
}

// Wait blocks until a request may be sent.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.bucket.Wait(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if d := retryAt.Sub(r.now()); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

// Observe records a throttled response so the next Wait backs off.
// It reports whether resp was throttled.
func (r *RateLimiter) Observe(resp *http.Response) bool {
	if resp == nil {
		return false
	}
	if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode != http.StatusServiceUnavailable {
		return false
	}

	backoff := DefaultBackoff
	if v := resp.Header.Get(HeaderRetryAfter); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			backoff = time.Duration(secs) * time.Second
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if until := r.now().Add(backoff); until.After(r.retryAt) {
		r.retryAt = until
	}
	return true
}

// RetryAt returns the time before which requests are held back.
func (r *RateLimiter) RetryAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.retryAt
}
