package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisLimiter counts submissions in Redis so the cap holds across replicas.
// Keys carry the local day and expire at the next local midnight.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	log    zerolog.Logger
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client, limit int, log zerolog.Logger) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  limit,
		log:    log,
		now:    time.Now,
	}
}

func (l *RedisLimiter) Consume(ctx context.Context, ip string) Decision {
	now := l.now()
	if ip == "" {
		return Decision{Allowed: true, Remaining: l.limit}
	}

	key := dayKey(ip, now)
	reset := nextReset(now)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		l.log.Warn().Err(err).Str("ip", ip).Msg("rate limit backend unavailable, failing open")
		return Decision{Allowed: true, Remaining: l.limit}
	}
	if count == 1 {
		if err := l.client.ExpireAt(ctx, key, reset).Err(); err != nil {
			l.log.Warn().Err(err).Str("key", key).Msg("rate limit key expiry failed")
		}
	}

	if count > int64(l.limit) {
		return Decision{Allowed: false, ResetAt: reset}
	}

	remaining := l.limit - int(count)
	return Decision{Allowed: true, Remaining: remaining, ResetAt: reset}
}
