package auth

import (
	"context"
	"time"
)

// TokenBlacklist tracks revoked token IDs until their original expiry.
type TokenBlacklist interface {
	Add(ctx context.Context, jti string, originalTokenExpTime time.Time) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}
