// Package ratelimit provides a token-bucket limiter for outbound request
// pacing, shared by the REST client and alert dispatcher.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter gates actions against a token bucket.
type Limiter interface {
	// Allow reports whether an action may proceed now, consuming a token.
	Allow() bool

	// Wait blocks until a token is available or ctx is cancelled.
	Wait(ctx context.Context) error

	// Reset restores the bucket to full capacity.
	Reset()
}

type limiter struct {
	capacity int
	interval time.Duration

	mu     sync.RWMutex
	bucket *rate.Limiter
}

// New builds a limiter refilling capacity tokens per interval.
func New(capacity int, interval time.Duration) Limiter {
	return &limiter{
		capacity: capacity,
		interval: interval,
		bucket:   newBucket(capacity, interval),
	}
}

func newBucket(capacity int, interval time.Duration) *rate.Limiter {
	return rate.NewLimiter(rate.Every(interval/time.Duration(capacity)), capacity)
}

func (l *limiter) Allow() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.bucket.Allow()
}

func (l *limiter) Wait(ctx context.Context) error {
	l.mu.RLock()
	bucket := l.bucket
	l.mu.RUnlock()
	return bucket.Wait(ctx)
}

func (l *limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.bucket = newBucket(l.capacity, l.interval)
}
