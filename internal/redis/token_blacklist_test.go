package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBlacklist(t *testing.T) (*miniredis.Miniredis, *tokenBlacklist) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewTokenBlacklist(client).(*tokenBlacklist)
}

func TestAddKeepsTokenUntilExpiry(t *testing.T) {
	mr, bl := newTestBlacklist(t)
	ctx := context.Background()

	require.NoError(t, bl.Add(ctx, "jti-1", time.Now().Add(time.Hour)))

	ttl := mr.TTL(blacklistKeyPrefix + "jti-1")
	assert.Greater(t, ttl, 59*time.Minute)
	assert.LessOrEqual(t, ttl, time.Hour)

	revoked, err := bl.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(time.Hour + time.Second)
	revoked, err = bl.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestAddSkipsExpiredToken(t *testing.T) {
	mr, bl := newTestBlacklist(t)

	require.NoError(t, bl.Add(context.Background(), "old", time.Now().Add(-time.Minute)))

	assert.False(t, mr.Exists(blacklistKeyPrefix+"old"))
}

func TestIsBlacklistedUnknownToken(t *testing.T) {
	_, bl := newTestBlacklist(t)

	revoked, err := bl.IsBlacklisted(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestBlacklistSurfacesRedisErrors(t *testing.T) {
	mr, bl := newTestBlacklist(t)
	mr.SetError("LOADING redis is loading")
	ctx := context.Background()

	err := bl.Add(ctx, "jti-2", time.Now().Add(time.Minute))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jti-2")

	_, err = bl.IsBlacklisted(ctx, "jti-2")
	require.Error(t, err)
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	_ = client.Close()

	addr := mr.Addr()
	mr.Close()
	_, err = NewClient(context.Background(), addr, "", 0)
	assert.Error(t, err)
}
