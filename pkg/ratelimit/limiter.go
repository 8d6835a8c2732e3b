// Package ratelimit implements the fixed-window admission gate that sits in
// front of the bridge initiate path. Counting is per identity key; windows
// for different identities reset independently.
package ratelimit

import (
	"sync"
	"time"
)

// Decision is the result of an admission check.
type Decision struct {
	OK bool
	// Remaining is the number of requests still accepted in the current window.
	Remaining int
	// RetryAfter is how long until the window resets. Meaningful on deny.
	RetryAfter time.Duration
}

type window struct {
	start time.Time
	count int
}

// Limiter is a concurrency-safe fixed-window counter keyed by identity.
type Limiter struct {
	windowLen   time.Duration
	maxRequests int

	mu      sync.Mutex
	entries map[string]*window
}

// New creates a limiter accepting maxRequests per identity per windowLen.
func New(windowLen time.Duration, maxRequests int) *Limiter {
	return &Limiter{
		windowLen:   windowLen,
		maxRequests: maxRequests,
		entries:     make(map[string]*window),
	}
}

// Allow records one request for key at the given time and decides admission.
// A denied request must cause no side effects in the caller.
func (l *Limiter) Allow(key string, now time.Time) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.entries[key]
	if !ok || now.Sub(w.start) >= l.windowLen {
		w = &window{start: now}
		l.entries[key] = w
	}

	if w.count >= l.maxRequests {
		return Decision{
			OK:         false,
			Remaining:  0,
			RetryAfter: w.start.Add(l.windowLen).Sub(now),
		}
	}

	w.count++
	l.pruneLocked(now)

	return Decision{
		OK:        true,
		Remaining: l.maxRequests - w.count,
	}
}

// pruneLocked drops expired windows so idle identities do not accumulate.
// Called with the mutex held; bounded by map size, which stays small in
// practice because every Allow for an active identity resets its window.
func (l *Limiter) pruneLocked(now time.Time) {
	if len(l.entries) < 1024 {
		return
	}
	for key, w := range l.entries {
		if now.Sub(w.start) >= l.windowLen {
			delete(l.entries, key)
		}
	}
}
