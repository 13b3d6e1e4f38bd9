package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "auth:revoked:"

// RedisRevocationRepository stores revoked token keys with a Redis TTL
type RedisRevocationRepository struct {
	client redis.Cmdable
	now    func() time.Time
}

// NewRedisRevocationRepository creates a RedisRevocationRepository
func NewRedisRevocationRepository(client redis.Cmdable) *RedisRevocationRepository {
	return &RedisRevocationRepository{client: client, now: time.Now}
}

func (r *RedisRevocationRepository) Revoke(ctx context.Context, key string, until time.Time) error {
	ttl := until.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revokedKeyPrefix+key, 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (r *RedisRevocationRepository) IsRevoked(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedKeyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	return n > 0, nil
}
