package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisInvalidator implements Invalidator with a SCAN+DEL sweep. Redis's
// own glob dialect (MATCH) already understands the "*" wildcards the core
// emits, so patterns pass through unchanged.
type RedisInvalidator struct {
	client *redis.Client
}

// NewRedisInvalidator connects lazily; the first Invalidate call surfaces
// any connection error.
func NewRedisInvalidator(redisURL string) (*RedisInvalidator, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisInvalidator{client: redis.NewClient(opts)}, nil
}

func (r *RedisInvalidator) Invalidate(ctx context.Context, pattern string) error {
	var cursor uint64
	const scanBatch = 500

	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return fmt.Errorf("scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("del matched by %s: %w", pattern, err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (r *RedisInvalidator) Close() error { return r.client.Close() }
