package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Decision is the outcome of one admission check. ResetAt is only meaningful
// when Allowed is false.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Error is returned by callers that convert a denied decision into an error.
type Error struct {
	ResetAt time.Time
}

func (e *Error) Error() string {
	return fmt.Sprintf("rate limit exceeded, resets at %s", e.ResetAt.Format(time.RFC3339))
}

// Limiter caps submissions per originating address per local calendar day.
// Implementations fail open: an empty address or a backend failure admits
// the request rather than blocking all anonymous traffic. That is a policy
// choice, not an oversight; the dedup constraint still holds per session.
type Limiter interface {
	Consume(ctx context.Context, ip string) Decision
}

// dayKey scopes a counter to one address and one local calendar day.
func dayKey(ip string, now time.Time) string {
	return fmt.Sprintf("ratelimit:%s:%s", ip, now.Format("2006-01-02"))
}

// nextReset is midnight at the start of the next local day.
func nextReset(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
}
