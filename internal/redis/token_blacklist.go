package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"match-service/internal/auth"
)

type tokenBlacklist struct {
	client *redis.Client
}

// NewTokenBlacklist stores revoked token IDs in Redis with a TTL matching
// the token's remaining lifetime.
func NewTokenBlacklist(client *redis.Client) auth.TokenBlacklist {
	return &tokenBlacklist{client: client}
}

const blacklistKeyPrefix = "bl:jti:"

func (r *tokenBlacklist) Add(ctx context.Context, jti string, originalTokenExpTime time.Time) error {
	duration := time.Until(originalTokenExpTime)
	if duration <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, blacklistKeyPrefix+jti, "revoked", duration).Err(); err != nil {
		return fmt.Errorf("blacklist jti %s: %w", jti, err)
	}
	return nil
}

func (r *tokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, blacklistKeyPrefix+jti).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("check blacklist for jti %s: %w", jti, err)
	}
	return n > 0, nil
}

// NewClient connects and pings Redis.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}
