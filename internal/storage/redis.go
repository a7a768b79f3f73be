package storage

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps browser state in redis so every storefront replica sees
// the same session id and sign-in for a browser.
type RedisStore struct {
	client  *redis.Client
	baseTTL time.Duration
}

// NewRedisStore creates a store whose keys live for baseTTL plus up to five
// minutes of jitter. A zero baseTTL keeps keys forever.
func NewRedisStore(client *redis.Client, baseTTL time.Duration) *RedisStore {
	return &RedisStore{
		client:  client,
		baseTTL: baseTTL,
	}
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return v, nil
}

func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, redisKey(key), value, r.ttl()).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// SetIfAbsent uses SETNX so replicas racing on one browser agree on a value.
func (r *RedisStore) SetIfAbsent(ctx context.Context, key, value string) (string, error) {
	ok, err := r.client.SetNX(ctx, redisKey(key), value, r.ttl()).Result()
	if err != nil {
		return "", fmt.Errorf("redis setnx failed: %w", err)
	}
	if ok {
		return value, nil
	}
	return r.Get(ctx, key)
}

func (r *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	rk := make([]string, len(keys))
	for i, k := range keys {
		rk[i] = redisKey(k)
	}
	if err := r.client.Del(ctx, rk...).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *RedisStore) ttl() time.Duration {
	if r.baseTTL <= 0 {
		return 0
	}
	jitter := time.Duration(rand.IntN(5)) * time.Minute
	return r.baseTTL + jitter
}

func redisKey(key string) string {
	return fmt.Sprintf("storefront:%s", key)
}
