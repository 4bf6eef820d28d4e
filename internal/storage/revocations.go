package storage

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRevocations remembers signed-out tokens until they would have expired anyway.
type RedisRevocations struct {
	Client *redis.Client
}

func NewRedisRevocations(client *redis.Client) *RedisRevocations {
	return &RedisRevocations{Client: client}
}

func (r *RedisRevocations) RevocationKey(tokenID string) string {
	return "revoked:" + tokenID
}

func (r *RedisRevocations) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return r.Client.Set(ctx, r.RevocationKey(tokenID), "1", ttl).Err()
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	res, err := r.Client.Exists(ctx, r.RevocationKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return res > 0, nil
}
