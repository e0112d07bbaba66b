package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"progress-hub/internal/domain"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "progress-hub:auth:"

// RedisCache shares the auth cache between replicas. Keys are credential
// digests so raw credentials never leave the process.
// Implements domain.AuthCache.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// NewRedisCacheFromURL creates a cache from a redis:// URL.
func NewRedisCacheFromURL(url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisCache(redis.NewClient(opts), ttl), nil
}

// Get retrieves the identity cached for credential.
func (c *RedisCache) Get(ctx context.Context, credential string) (domain.Identity, bool, error) {
	val, err := c.client.Get(ctx, redisKey(credential)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return domain.Identity(val), true, nil
}

// Set caches identity for credential with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, credential string, id domain.Identity) error {
	if err := c.client.Set(ctx, redisKey(credential), string(id), c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func redisKey(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return redisKeyPrefix + hex.EncodeToString(sum[:])
}
