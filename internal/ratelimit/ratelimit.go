// Package ratelimit provides the sliding window limiter used in front of
// remote APIs.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter allows at most maxRequests calls inside any window.
type Limiter struct {
	mu          sync.Mutex
	requests    []time.Time
	maxRequests int
	window      time.Duration
}

// New returns a limiter. A non-positive maxRequests disables limiting.
func New(maxRequests int, window time.Duration) *Limiter {
	return &Limiter{
		maxRequests: maxRequests,
		window:      window,
		requests:    make([]time.Time, 0, max(maxRequests, 0)),
	}
}

// Wait blocks until a request fits in the window or ctx ends.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.maxRequests <= 0 {
		return ctx.Err()
	}

	for {
		l.mu.Lock()
		now := time.Now()
		l.prune(now)
		if len(l.requests) < l.maxRequests {
			l.requests = append(l.requests, now)
			l.mu.Unlock()
			return nil
		}
		// small buffer so the oldest request has really left the window
		wait := l.window - now.Sub(l.requests[0]) + 10*time.Millisecond
		l.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// prune drops requests that fell out of the window. Caller holds mu.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	kept := l.requests[:0]
	for _, req := range l.requests {
		if req.After(cutoff) {
			kept = append(kept, req)
		}
	}
	l.requests = kept
}
