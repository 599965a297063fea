package ratelimit

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_UnlimitedDoesNotBlock(t *testing.T) {
	r := New(0)
	ctx := context.Background()
	for i := 0; i < 50; i++ {
		require.NoError(t, r.Wait(ctx))
	}
}

func TestRateLimiter_Observe(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := New(0)
	r.now = func() time.Time { return base }

	assert.False(t, r.Observe(nil))
	assert.False(t, r.Observe(&http.Response{StatusCode: http.StatusOK}))
	assert.True(t, r.RetryAt().IsZero())

	resp := &http.Response{StatusCode: http.StatusTooManyRequests, Header: http.Header{}}
	resp.Header.Set(HeaderRetryAfter, "7")
	assert.True(t, r.Observe(resp))
	assert.Equal(t, base.Add(7*time.Second), r.RetryAt())

	// A shorter hint never pulls the deadline forward.
	assert.True(t, r.Observe(&http.Response{StatusCode: http.StatusServiceUnavailable, Header: http.Header{}}))
	assert.Equal(t, base.Add(7*time.Second), r.RetryAt())
}

func TestRateLimiter_WaitHonoursRetryAfter(t *testing.T) {
	r := New(0)
	r.retryAt = time.Now().Add(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := r.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimiter_CancelledContext(t *testing.T) {
	r := New(0.001)
	ctx := context.Background()
	require.NoError(t, r.Wait(ctx))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.Error(t, r.Wait(cancelled))
}
