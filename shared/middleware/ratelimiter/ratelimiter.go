package ratelimiter

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// UserRateLimiter keeps one token bucket per identity (IP, user, key).
type UserRateLimiter struct {
	limiters       map[string]*entry
	mu             sync.Mutex
	rate           rate.Limit
	burst          int
	expirationTime time.Duration
	now            func() time.Time
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New creates a limiter refilling at r tokens per second with the given burst.
// Identities idle for longer than expirationTime are forgotten by Cleanup.
func New(r rate.Limit, burst int, expirationTime time.Duration) *UserRateLimiter {
	return &UserRateLimiter{
		limiters:       make(map[string]*entry),
		rate:           r,
		burst:          burst,
		expirationTime: expirationTime,
		now:            time.Now,
	}
}

// OncePer admits one event per identity per window.
func OncePer(window time.Duration) *UserRateLimiter {
	return New(rate.Every(window), 1, 2*window)
}

func Rps(n int) *UserRateLimiter {
	return New(rate.Limit(n), n, time.Hour)
}

func (u *UserRateLimiter) get(id string) *rate.Limiter {
	u.mu.Lock()
	defer u.mu.Unlock()

	e, ok := u.limiters[id]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(u.rate, u.burst)}
		u.limiters[id] = e
	}
	e.lastSeen = u.now()
	return e.limiter
}

// Allow consumes a token for id if one is available.
func (u *UserRateLimiter) Allow(id string) bool {
	return u.get(id).AllowN(u.now(), 1)
}

// Available reports whether id has a token without consuming it.
func (u *UserRateLimiter) Available(id string) bool {
	return u.get(id).TokensAt(u.now()) >= 1
}

// Cleanup forgets identities that have been idle longer than the expiration time.
func (u *UserRateLimiter) Cleanup() int {
	u.mu.Lock()
	defer u.mu.Unlock()

	cutoff := u.now().Add(-u.expirationTime)
	removed := 0
	for id, e := range u.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(u.limiters, id)
			removed++
		}
	}
	return removed
}

func (u *UserRateLimiter) Len() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.limiters)
}

// StartCleanup runs Cleanup every interval until ctx is done.
func (u *UserRateLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				u.Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()
}
