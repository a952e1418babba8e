package controllers

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// UserRateLimiter hands out one token bucket per user. Idle buckets are dropped
// after idleTTL; the sweep runs at most once per idleTTL.
type UserRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*userLimiter
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time

	lastSweep time.Time
}

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewUserRateLimiter returns nil (no limiting) when perSecond is 0.
func NewUserRateLimiter(perSecond float64, burst int) *UserRateLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &UserRateLimiter{
		limiters: make(map[string]*userLimiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		idleTTL:  10 * time.Minute,
		now:      time.Now,
	}
}

// Allow reports whether userID may make another request now.
func (l *UserRateLimiter) Allow(userID string) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.limiters[userID]
	if !ok {
		if now.Sub(l.lastSweep) > l.idleTTL {
			l.evictLocked(now)
			l.lastSweep = now
		}
		entry = &userLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[userID] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

func (l *UserRateLimiter) evictLocked(now time.Time) {
	for id, entry := range l.limiters {
		if now.Sub(entry.lastSeen) > l.idleTTL {
			delete(l.limiters, id)
		}
	}
}
