package ratelimit

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisCounter keeps window counts in Redis. INCR creates the key when
// absent; the first hit of a window attaches the expiry that closes it.
type RedisCounter struct {
	client *redis.Client
	prefix string
}

// NewRedisCounter builds a RedisCounter. Keys are stored as
// "ratelimit:<key>".
func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client, prefix: "ratelimit:"}
}

func (c *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	full := c.prefix + key
	count, err := c.client.Incr(ctx, full).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := c.client.Expire(ctx, full, window).Err(); err != nil {
			return 0, err
		}
	}
	return count, nil
}
