package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter keeps per-address counters in process. Used when Redis is
// not configured; the cap then only holds per replica.
type MemoryLimiter struct {
	mu       sync.Mutex
	counters map[string]*counter
	day      string
	limit    int
	now      func() time.Time
}

type counter struct {
	day   string
	count int
}

func NewMemoryLimiter(limit int) *MemoryLimiter {
	return &MemoryLimiter{
		counters: make(map[string]*counter),
		limit:    limit,
		now:      time.Now,
	}
}

func (l *MemoryLimiter) Consume(_ context.Context, ip string) Decision {
	now := l.now()
	if ip == "" {
		return Decision{Allowed: true, Remaining: l.limit}
	}

	day := now.Format("2006-01-02")
	reset := nextReset(now)

	l.mu.Lock()
	defer l.mu.Unlock()

	// Day rollover: drop every counter from previous days, not just the
	// ones whose addresses happen to show up again.
	if l.day != day {
		for addr, c := range l.counters {
			if c.day != day {
				delete(l.counters, addr)
			}
		}
		l.day = day
	}

	c, ok := l.counters[ip]
	if !ok || c.day != day {
		c = &counter{day: day}
		l.counters[ip] = c
	}
	c.count++

	if c.count > l.limit {
		return Decision{Allowed: false, ResetAt: reset}
	}
	return Decision{Allowed: true, Remaining: l.limit - c.count, ResetAt: reset}
}
