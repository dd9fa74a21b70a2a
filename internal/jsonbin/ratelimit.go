package jsonbin

import (
	"context"
	"sync"
	"time"
)

// RateLimiter spaces out requests so a backfill doesn't burst the API
type RateLimiter struct {
	mu          sync.Mutex
	minInterval time.Duration
	lastRequest time.Time
	requests    int
}

// NewRateLimiter creates a limiter allowing one request per minInterval
func NewRateLimiter(minInterval time.Duration) *RateLimiter {
	return &RateLimiter{minInterval: minInterval}
}

// Wait blocks until a request can be made
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	elapsed := time.Since(r.lastRequest)
	if elapsed < r.minInterval {
		waitTime := r.minInterval - elapsed
		r.mu.Unlock()
		select {
		case <-time.After(waitTime):
		case <-ctx.Done():
			r.mu.Lock()
			return ctx.Err()
		}
		r.mu.Lock()
	}

	r.requests++
	r.lastRequest = time.Now()
	return nil
}

// Requests returns how many requests have been let through
func (r *RateLimiter) Requests() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests
}
