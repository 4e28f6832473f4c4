package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type cachedList struct {
	Names []string `json:"names"`
}

func setupViewCache(t *testing.T) (*miniredis.Miniredis, ViewCache) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return mr, NewRedisViewCache(client, time.Minute, zap.NewNop())
}

func TestViewCache_SetAndGet(t *testing.T) {
	_, c := setupViewCache(t)
	ctx := context.Background()

	var got cachedList
	ok, err := c.Get(ctx, ViewFeatured, "", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, ViewFeatured, "", cachedList{Names: []string{"a", "b"}}))

	ok, err = c.Get(ctx, ViewFeatured, "", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, got.Names)
}

func TestViewCache_EntriesExpire(t *testing.T) {
	mr, c := setupViewCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, ViewAll, "k", cachedList{}))
	mr.FastForward(2 * time.Minute)

	ok, err := c.Get(ctx, ViewAll, "k", &cachedList{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestViewCache_InvalidateProductViews(t *testing.T) {
	mr, c := setupViewCache(t)
	ctx := context.Background()

	for _, view := range ProductViews {
		require.NoError(t, c.Set(ctx, view, "one", cachedList{}))
		require.NoError(t, c.Set(ctx, view, "two", cachedList{}))
	}
	require.NoError(t, mr.Set("ratelimit:clicks:1.2.3.4", "3"))

	require.NoError(t, c.InvalidateProductViews(ctx))

	for _, view := range ProductViews {
		ok, err := c.Get(ctx, view, "one", &cachedList{})
		require.NoError(t, err)
		assert.False(t, ok, "view %s survived invalidation", view)
	}
	assert.True(t, mr.Exists("ratelimit:clicks:1.2.3.4"), "unrelated keys must survive")
}

func TestNopViewCache(t *testing.T) {
	c := NewNopViewCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, ViewAll, "", cachedList{Names: []string{"x"}}))
	ok, err := c.Get(ctx, ViewAll, "", &cachedList{})
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.InvalidateProductViews(ctx))
}
