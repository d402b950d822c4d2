package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"winnersfit-data/internal/store"
)

func setupTokenService(t *testing.T) *TokenService {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	kv := store.NewRedisKV(client)
	return NewTokenService(kv, 20*time.Second, 25*time.Second, "https://example.test/attendance", zap.NewNop())
}

func TestTokenService_RotateAndValidate(t *testing.T) {
	svc := setupTokenService(t)
	ctx := context.Background()

	tok, err := svc.Rotate(ctx)
	require.NoError(t, err)
	assert.Len(t, tok.Token, 13)

	require.NoError(t, svc.Validate(ctx, tok.Token))
}

func TestTokenService_ValidateMissingToken(t *testing.T) {
	svc := setupTokenService(t)

	err := svc.Validate(context.Background(), "")
	assert.ErrorIs(t, err, ErrTokenMissing)
}

func TestTokenService_ValidateNoDocument(t *testing.T) {
	svc := setupTokenService(t)

	err := svc.Validate(context.Background(), "abcdefghij123")
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenService_ValidateMismatch(t *testing.T) {
	svc := setupTokenService(t)
	ctx := context.Background()

	_, err := svc.Rotate(ctx)
	require.NoError(t, err)

	err = svc.Validate(ctx, "wrongwrongwro")
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenService_SupersededTokenRejected(t *testing.T) {
	svc := setupTokenService(t)
	ctx := context.Background()

	old, err := svc.Rotate(ctx)
	require.NoError(t, err)

	// 新一轮铸造覆写共享文档，旧令牌立即失效
	_, err = svc.Rotate(ctx)
	require.NoError(t, err)

	err = svc.Validate(ctx, old.Token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenService_ExpiryBoundary(t *testing.T) {
	svc := setupTokenService(t)
	ctx := context.Background()

	base := time.Now()
	svc.now = func() time.Time { return base }

	tok, err := svc.Rotate(ctx)
	require.NoError(t, err)

	// 过期时刻当拍仍有效
	svc.now = func() time.Time { return time.UnixMilli(tok.Expires) }
	assert.NoError(t, svc.Validate(ctx, tok.Token))

	// 过了一毫秒即失效
	svc.now = func() time.Time { return time.UnixMilli(tok.Expires + 1) }
	assert.ErrorIs(t, svc.Validate(ctx, tok.Token), ErrTokenExpired)
}

func TestTokenService_DeepLink(t *testing.T) {
	svc := setupTokenService(t)
	assert.Equal(t, "https://example.test/attendance?token=abc", svc.DeepLink("abc"))
}

func TestTokenService_TTLAlwaysOutlivesRotation(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	kv := store.NewRedisKV(client)

	// 配置把 TTL 设得短于轮换周期时自动拉长
	svc := NewTokenService(kv, 20*time.Second, 5*time.Second, "", zap.NewNop())
	assert.Greater(t, svc.tokenTTL, svc.rotatePeriod)
}
