package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type redisLimiter struct {
	rdb    goredis.Cmdable
	cfg    Config
	prefix string
}

// NewRedis returns a limiter shared by every server instance. A key's counter
// starts on its first reservation and expires after Window.
func NewRedis(rdb goredis.Cmdable, cfg Config, prefix string) AttemptLimiter {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "pawclinic:login"
	}
	return &redisLimiter{rdb: rdb, cfg: cfg.withDefaults(), prefix: prefix}
}

func (r *redisLimiter) redisKey(key string) string {
	return r.prefix + ":" + key
}

// Reserve creates the counter with its TTL and increments it in one MULTI/EXEC,
// so a counter without an expiry can never be left behind.
func (r *redisLimiter) Reserve(ctx context.Context, key string) (Decision, error) {
	k := r.redisKey(key)
	var (
		incr *goredis.IntCmd
		pttl *goredis.DurationCmd
	)
	_, err := r.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.SetNX(ctx, k, 0, r.cfg.Window)
		incr = p.Incr(ctx, k)
		pttl = p.PTTL(ctx, k)
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("redis reserve attempt: %w", err)
	}
	n := int(incr.Val())
	if n <= r.cfg.MaxAttempts {
		return Decision{Allowed: true, Remaining: r.cfg.MaxAttempts - n}, nil
	}
	ttl := pttl.Val()
	if ttl < time.Second {
		ttl = time.Second
	}
	return Decision{Allowed: false, RetryAfter: ttl}, nil
}

func (r *redisLimiter) Reset(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, r.redisKey(key)).Err()
}
