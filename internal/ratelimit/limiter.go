// Package ratelimit provides a per-(subject, action) window counter shared by
// message creation, reporting, and moderation endpoints.
package ratelimit

import (
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

// Limiter counts actions in fixed windows. Windows reset lazily on the first
// check after the reset time; nothing is swept eagerly.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

func NewLimiter() *Limiter {
	return &Limiter{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Check increments the counter for (subject, action) and reports whether the
// call is allowed. The increment-and-compare is one step under the lock so
// concurrent callers cannot lose updates. When the limit is already exceeded
// the count is left alone and Check returns false with the time remaining
// until the window resets.
func (l *Limiter) Check(subject, action string, limit int, windowDur time.Duration) (bool, time.Duration) {
	key := subject + ":" + action
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &window{resetAt: now.Add(windowDur)}
		l.windows[key] = w
	}

	if w.count >= limit {
		return false, w.resetAt.Sub(now)
	}
	w.count++
	return true, 0
}

// Len reports the number of tracked keys; stale windows linger until their
// key is checked again.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
