package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// View names a cached read view derived from the products table
type View string

const (
	ViewAll         View = "all"
	ViewFeatured    View = "featured"
	ViewNonFeatured View = "non_featured"
	ViewHierarchy   View = "hierarchy"
)

// ProductViews are dropped after every product mutation
var ProductViews = []View{ViewAll, ViewFeatured, ViewNonFeatured, ViewHierarchy}

const keyPrefix = "catalog:view:"

// ViewCache stores serialised read views. Entries are replaced whole.
type ViewCache interface {
	Get(ctx context.Context, view View, key string, dst any) (bool, error)
	Set(ctx context.Context, view View, key string, value any) error
	InvalidateProductViews(ctx context.Context) error
}

type redisViewCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisViewCache returns a ViewCache backed by Redis
func NewRedisViewCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) ViewCache {
	return &redisViewCache{client: client, ttl: ttl, logger: logger}
}

func viewKey(view View, key string) string {
	if key == "" {
		key = "_"
	}
	return keyPrefix + string(view) + ":" + key
}

// Get decodes the cached entry into dst and reports whether it was present
func (c *redisViewCache) Get(ctx context.Context, view View, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, viewKey(view, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", view, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", view, err)
	}
	return true, nil
}

func (c *redisViewCache) Set(ctx context.Context, view View, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", view, err)
	}
	if err := c.client.Set(ctx, viewKey(view, key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", view, err)
	}
	return nil
}

// InvalidateProductViews deletes every entry of every product view
func (c *redisViewCache) InvalidateProductViews(ctx context.Context) error {
	var deleted int
	for _, view := range ProductViews {
		iter := c.client.Scan(ctx, 0, keyPrefix+string(view)+":*", 100).Iterator()
		var batch []string
		for iter.Next(ctx) {
			batch = append(batch, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("cache scan %s: %w", view, err)
		}
		if len(batch) == 0 {
			continue
		}
		if err := c.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("cache invalidate %s: %w", view, err)
		}
		deleted += len(batch)
	}
	c.logger.Debug("Invalidated product views", zap.Int("keys", deleted))
	return nil
}

type nopViewCache struct{}

// NewNopViewCache returns a ViewCache that never stores anything
func NewNopViewCache() ViewCache {
	return nopViewCache{}
}

func (nopViewCache) Get(context.Context, View, string, any) (bool, error) { return false, nil }
func (nopViewCache) Set(context.Context, View, string, any) error         { return nil }
func (nopViewCache) InvalidateProductViews(context.Context) error         { return nil }
