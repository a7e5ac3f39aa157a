package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptLimiter counts failures per key in a fixed window, e.g. failed logins
// per username. With a nil client, or when disabled, every attempt is allowed.
type AttemptLimiter struct {
	rdb      *redis.Client
	prefix   string
	max      int
	window   time.Duration
	disabled bool
}

// NewAttemptLimiter allows up to max failures per window for each key.
func NewAttemptLimiter(rdb *redis.Client, prefix string, max int, window time.Duration, disabled bool) *AttemptLimiter {
	return &AttemptLimiter{rdb: rdb, prefix: prefix, max: max, window: window, disabled: disabled}
}

func (l *AttemptLimiter) active() bool {
	return l != nil && l.rdb != nil && !l.disabled && l.max > 0
}

func (l *AttemptLimiter) key(id string) string {
	return fmt.Sprintf("rl:%s:%s", l.prefix, id)
}

// Allowed reports whether id is still under the failure limit.
func (l *AttemptLimiter) Allowed(ctx context.Context, id string) (bool, error) {
	if !l.active() {
		return true, nil
	}
	raw, err := l.rdb.Get(ctx, l.key(id)).Result()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	cnt, err := strconv.Atoi(raw)
	if err != nil {
		return true, nil
	}
	return cnt < l.max, nil
}

// Fail records one failure for id, starting the window on the first one.
func (l *AttemptLimiter) Fail(ctx context.Context, id string) error {
	if !l.active() {
		return nil
	}
	key := l.key(id)
	cnt, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if cnt == 1 {
		return l.rdb.Expire(ctx, key, l.window).Err()
	}
	return nil
}

// Reset clears the failures recorded for id.
func (l *AttemptLimiter) Reset(ctx context.Context, id string) error {
	if !l.active() {
		return nil
	}
	return l.rdb.Del(ctx, l.key(id)).Err()
}
