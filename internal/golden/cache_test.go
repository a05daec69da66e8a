package golden_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jnguyen/visual-aoi/internal/golden"
)

func TestFeatureCacheGetPutInProcessOnly(t *testing.T) {
	cache, err := golden.NewFeatureCache(8)
	require.NoError(t, err)

	key := golden.Key("/golden/1.jpg", 123)
	_, ok := cache.Get(key)
	assert.False(t, ok)

	cache.Put(key, []float64{1, 2, 3})
	vec, ok := cache.Get(key)
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2, 3}, vec)
}

func TestFeatureCacheWithRedisEmptyAddrDegradesToLRU(t *testing.T) {
	cache, err := golden.NewFeatureCacheWithRedis(8, "")
	require.NoError(t, err)
	defer cache.Close()

	ctx := context.Background()
	key := golden.Key("/golden/2.jpg", 456)
	cache.PutCtx(ctx, key, []float64{4, 5, 6})

	vec, ok := cache.GetCtx(ctx, key)
	require.True(t, ok)
	assert.Equal(t, []float64{4, 5, 6}, vec)
}

func TestFeatureCacheUnreachableRedisDegrades(t *testing.T) {
	cache, err := golden.NewFeatureCacheWithRedis(8, "127.0.0.1:1")
	require.NoError(t, err)
	defer cache.Close()

	ctx := context.Background()
	key := golden.Key("/golden/3.jpg", 789)
	cache.PutCtx(ctx, key, []float64{7, 8, 9})

	vec, ok := cache.GetCtx(ctx, key)
	require.True(t, ok)
	assert.Equal(t, []float64{7, 8, 9}, vec)
}

func TestFeatureCacheRedisTierServesAcrossInstances(t *testing.T) {
	mr := miniredis.RunT(t)

	writer, err := golden.NewFeatureCacheWithRedis(8, mr.Addr())
	require.NoError(t, err)
	defer writer.Close()

	reader, err := golden.NewFeatureCacheWithRedis(8, mr.Addr())
	require.NoError(t, err)
	defer reader.Close()

	ctx := context.Background()
	key := golden.Key("/golden/4.jpg", 1011)
	writer.PutCtx(ctx, key, []float64{1.5, 2.5})

	vec, ok := reader.GetCtx(ctx, key)
	require.True(t, ok)
	assert.Equal(t, []float64{1.5, 2.5}, vec)
}
