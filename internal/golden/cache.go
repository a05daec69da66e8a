package golden

import (
	"context"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
)

// FeatureCache memoizes decoded feature vectors for golden images, keyed by
// file path plus modification time so a promotion (which renames, never
// rewrites, a file) never serves a stale vector under the old path after a
// new image lands at that path. redis, when connected, is an optional
// second tier consulted ahead of the in-process LRU (§11 domain stack).
type FeatureCache struct {
	cache *lru.Cache[string, []float64]
	redis *redisTier
}

// NewFeatureCache creates an in-process-only cache holding up to size
// entries.
func NewFeatureCache(size int) (*FeatureCache, error) {
	c, err := lru.New[string, []float64](size)
	if err != nil {
		return nil, err
	}
	return &FeatureCache{cache: c}, nil
}

// NewFeatureCacheWithRedis creates a cache backed by the in-process LRU plus
// an optional Redis second tier at redisAddr. An empty or unreachable
// redisAddr degrades to LRU-only, never a startup failure.
func NewFeatureCacheWithRedis(size int, redisAddr string) (*FeatureCache, error) {
	fc, err := NewFeatureCache(size)
	if err != nil {
		return nil, err
	}
	fc.redis = connectRedisTier(redisAddr)
	return fc, nil
}

// Close releases the Redis connection, if any.
func (c *FeatureCache) Close() {
	c.redis.close()
}

// GetCtx checks the Redis tier first (populating the local LRU on a hit),
// then the in-process LRU.
func (c *FeatureCache) GetCtx(ctx context.Context, key string) ([]float64, bool) {
	if vec, ok := c.redis.get(ctx, key); ok {
		c.cache.Add(key, vec)
		return vec, true
	}
	return c.cache.Get(key)
}

// PutCtx stores vec under key in both the in-process LRU and, if connected,
// the Redis tier.
func (c *FeatureCache) PutCtx(ctx context.Context, key string, vec []float64) {
	c.cache.Add(key, vec)
	c.redis.put(ctx, key, vec)
}

// Key builds the cache key for a golden file at the given path and mtime
// (as Unix nanoseconds) — callers stat the file themselves since the cache
// has no filesystem access of its own.
func Key(path string, modTimeUnixNano int64) string {
	return path + "#" + strconv.FormatInt(modTimeUnixNano, 10)
}

// Get returns a cached feature vector for key, if present.
func (c *FeatureCache) Get(key string) ([]float64, bool) {
	return c.cache.Get(key)
}

// Put stores a feature vector under key.
func (c *FeatureCache) Put(key string, vec []float64) {
	c.cache.Add(key, vec)
}
