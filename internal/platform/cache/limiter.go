package cache

import (
	"sync"
	"time"
)

// Limiter counts requests per key within a fixed window. Allow checks the
// remaining budget and records the request in one step.
type Limiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*limitWindow
}

type limitWindow struct {
	start time.Time
	count int
}

// NewLimiter creates a limiter allowing limit requests per window for each key.
// A non-positive limit disables limiting.
func NewLimiter(limit int, window time.Duration) *Limiter {
	return &Limiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		windows: make(map[string]*limitWindow),
	}
}

// Allow reports whether key has capacity left in its current window and, if
// so, records one request against it.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.current(key)
	if l.limit > 0 && w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Usage returns the count recorded for key in its current window.
func (l *Limiter) Usage(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current(key).count
}

// current returns the live window for key, resetting it if expired. Caller holds mu.
func (l *Limiter) current(key string) *limitWindow {
	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.window {
		w = &limitWindow{start: now}
		l.windows[key] = w
	}
	return w
}
