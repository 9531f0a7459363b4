package session

import (
	"sync"
	"time"
)

// RateLimiter is a per-session token bucket: capacity C, refill R tokens
// every P seconds. Buckets are allocated lazily on first use and
// destroyed on session cleanup; heartbeats bypass the limiter entirely
// (the message handler never calls TryConsume for HEARTBEAT).
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	capacity float64
	refill   float64 // tokens per second
}

type bucket struct {
	tokens float64
	last   time.Time
}

func NewRateLimiter(capacity, refillTokens int, refillPeriod time.Duration) *RateLimiter {
	refillPerSecond := float64(refillTokens) / refillPeriod.Seconds()
	return &RateLimiter{
		buckets:  make(map[string]*bucket),
		capacity: float64(capacity),
		refill:   refillPerSecond,
	}
}

// TryConsume reports whether session may send a rate-limited message
// right now, consuming one token if so. O(1). Any internal inconsistency
// fails open.
func (r *RateLimiter) TryConsume(session string) (allowed bool) {
	if r == nil {
		return true
	}
	defer func() {
		if recover() != nil {
			allowed = true
		}
	}()
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.buckets[session]
	now := time.Now()
	if !ok {
		b = &bucket{tokens: r.capacity, last: now}
		r.buckets[session] = b
	}

	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * r.refill
		if b.tokens > r.capacity {
			b.tokens = r.capacity
		}
		b.last = now
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Forget destroys session's bucket; part of Cleanup's idempotent
// teardown.
func (r *RateLimiter) Forget(session string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.buckets, session)
}
