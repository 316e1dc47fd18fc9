package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const vaultKeyPrefix = "vault:"

// RedisVault keeps parked tokens in redis so restore works across service
// instances and process restarts.
type RedisVault struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisVault(rdb *redis.Client, ttl time.Duration) *RedisVault {
	if ttl <= 0 {
		ttl = DefaultVaultTTL
	}

	return &RedisVault{rdb: rdb, ttl: ttl}
}

func (v *RedisVault) Save(ctx context.Context, key, token string) error {
	return v.rdb.Set(ctx, vaultKeyPrefix+key, token, v.ttl).Err()
}

func (v *RedisVault) Get(ctx context.Context, key string) (string, error) {
	token, err := v.rdb.Get(ctx, vaultKeyPrefix+key).Result()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrVaultMiss
		}

		return "", err
	}

	return token, nil
}

func (v *RedisVault) Delete(ctx context.Context, key string) error {
	return v.rdb.Del(ctx, vaultKeyPrefix+key).Err()
}
