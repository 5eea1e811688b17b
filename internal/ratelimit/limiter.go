package ratelimit

import (
	"sync"
	"time"
)

const (
	DefaultWindow = 10 * time.Second
	DefaultLimit  = 5
)

// Result reports the outcome of a single admission check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   int64
}

type window struct {
	count   int
	resetAt int64
}

// Limiter counts requests per key in fixed, non-overlapping windows. State is
// per-process; behind multiple instances each one enforces its own ceiling.
// Stale keys are never evicted, which is an accepted unbounded-growth tradeoff
// for the small deployments this runs in.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	window  time.Duration
	limit   int
}

func New(windowLen time.Duration, limit int) *Limiter {
	if windowLen <= 0 {
		windowLen = DefaultWindow
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Limiter{
		windows: make(map[string]*window),
		window:  windowLen,
		limit:   limit,
	}
}

// Check admits or denies one request for key at the given instant. A fresh or
// lapsed window restarts with count=1; otherwise the count grows until the
// ceiling, after which requests are denied until resetAt.
func (l *Limiter) Check(key string, now time.Time) Result {
	nowMs := now.UnixMilli()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || w.resetAt <= nowMs {
		resetAt := nowMs + l.window.Milliseconds()
		l.windows[key] = &window{count: 1, resetAt: resetAt}
		return Result{Allowed: true, Remaining: l.limit - 1, ResetAt: resetAt}
	}

	if w.count >= l.limit {
		return Result{Allowed: false, Remaining: 0, ResetAt: w.resetAt}
	}

	w.count++
	return Result{Allowed: true, Remaining: l.limit - w.count, ResetAt: w.resetAt}
}

// Size reports how many keys are tracked. Used by tests and metrics.
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
