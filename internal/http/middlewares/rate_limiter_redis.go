package middlewares

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const limiterKeyPrefix = "ratelimit:"

// RedisLimiterStore keeps windows in redis so the limit holds across service
// instances. INCR + EXPIRE-on-first-hit gives the same fixed-window shape as
// the in-memory store.
type RedisLimiterStore struct {
	rdb *redis.Client
}

func NewRedisLimiterStore(rdb *redis.Client) *RedisLimiterStore {
	return &RedisLimiterStore{rdb: rdb}
}

func (s *RedisLimiterStore) Incr(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	k := limiterKeyPrefix + key

	count, err := s.rdb.Incr(ctx, k).Result()

	if err != nil {
		return 0, 0, err
	}

	if count == 1 {
		if err := s.rdb.Expire(ctx, k, window).Err(); err != nil {
			return 0, 0, err
		}

		return 1, 0, nil
	}

	ttl, err := s.rdb.TTL(ctx, k).Result()

	if err != nil || ttl < 0 {
		ttl = window
	}

	return int(count), ttl, nil
}
