package api

import (
	"sync"

	"golang.org/x/time/rate"
)

// ownerLimiter holds one token bucket per owner.
type ownerLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

func newOwnerLimiter(perMinute float64, burst int) *ownerLimiter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(perMinute / 60.0)
	}
	if burst <= 0 {
		burst = 1
	}
	return &ownerLimiter{limit: limit, burst: burst, limiters: make(map[string]*rate.Limiter)}
}

func (l *ownerLimiter) Allow(owner string) bool {
	l.mu.Lock()
	limiter, ok := l.limiters[owner]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[owner] = limiter
	}
	l.mu.Unlock()
	return limiter.Allow()
}
