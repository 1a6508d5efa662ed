package repository

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const suppressedKeyPrefix = "push:token:suppressed:"

// RedisRepository caches tokens the provider has rejected as permanently
// invalid, so every instance of the service skips them without waiting
// for its own rejection.
type RedisRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRepository(client *redis.Client, ttl time.Duration) *RedisRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}

// IsTokenSuppressed returns true if the token is currently marked invalid.
func (r *RedisRepository) IsTokenSuppressed(ctx context.Context, token string) (bool, error) {
	exists, err := r.client.Exists(ctx, suppressedKeyPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return exists == 1, nil
}

// SuppressTokens marks a batch of tokens invalid for the configured TTL.
func (r *RedisRepository) SuppressTokens(ctx context.Context, tokens []string) error {
	pipe := r.client.Pipeline()
	for _, token := range tokens {
		pipe.SetEX(ctx, suppressedKeyPrefix+token, "1", r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}
