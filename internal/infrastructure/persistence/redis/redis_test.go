package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/storefront/internal/domain/rating"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

// 需要真实Redis:STOREFRONT_TEST_REDIS_ADDR=localhost:6379
func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("STOREFRONT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("未设置STOREFRONT_TEST_REDIS_ADDR")
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	require.NoError(t, client.Ping(context.Background()).Err())
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func uniqueID() uint {
	return uint(time.Now().UnixNano() % 1_000_000_000)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "storefront:session:7", sessionKey(7))
	assert.Equal(t, "storefront:blacklist:abc", blacklistKey("abc"))
	assert.Equal(t, "storefront:rating:summary:42", summaryKey(42))
}

func TestSessionLifecycle(t *testing.T) {
	store := NewSessionStore(newTestClient(t))
	ctx := context.Background()
	userID := uniqueID()

	require.NoError(t, store.SaveSession(ctx, userID, map[string]interface{}{
		"login_ip": "127.0.0.1",
		"email":    "alice@example.com",
	}, time.Minute))

	got, err := store.GetSession(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", got["login_ip"])

	require.NoError(t, store.DeleteSession(ctx, userID))
	_, err = store.GetSession(ctx, userID)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestBlacklist(t *testing.T) {
	store := NewSessionStore(newTestClient(t))
	ctx := context.Background()
	token := fmt.Sprintf("token-%d", uniqueID())

	in, err := store.IsInBlacklist(ctx, token)
	require.NoError(t, err)
	assert.False(t, in)

	require.NoError(t, store.AddToBlacklist(ctx, token, time.Minute))
	in, err = store.IsInBlacklist(ctx, token)
	require.NoError(t, err)
	assert.True(t, in)
}

func TestRatingSummaryCache(t *testing.T) {
	cache := NewRatingSummaryCache(newTestClient(t), time.Minute)
	ctx := context.Background()
	productID := uniqueID()

	_, hit, err := cache.Get(ctx, productID)
	require.NoError(t, err)
	assert.False(t, hit)

	summary := rating.Summarize(productID, []int{5, 3})
	require.NoError(t, cache.Set(ctx, &summary))

	got, hit, err := cache.Get(ctx, productID)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, 2, got.Count)
	assert.InDelta(t, 4.0, got.AverageRating, 1e-9)
	assert.Equal(t, 1, got.Distribution[5])

	require.NoError(t, cache.Invalidate(ctx, productID))
	_, hit, err = cache.Get(ctx, productID)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRatingSummaryCacheDefaultTTL(t *testing.T) {
	cache := NewRatingSummaryCache(nil, 0)
	assert.Equal(t, defaultRatingCacheTTL, cache.ttl)
}
