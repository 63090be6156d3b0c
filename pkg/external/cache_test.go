package external

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drug-response-server/internal/domain"
)

func TestDrugInfoCache_SetGet(t *testing.T) {
	cache, err := NewDrugInfoCache(domain.CacheConfig{LRUSize: 8})
	require.NoError(t, err)
	defer cache.Close()

	ctx := context.Background()
	info := &domain.DrugInfo{DrugName: "Metformin", Sources: []string{"rxnorm"}}

	_, found := cache.Get(ctx, "Metformin")
	assert.False(t, found)

	cache.Set(ctx, "Metformin", info)

	got, found := cache.Get(ctx, "Metformin")
	require.True(t, found)
	assert.Equal(t, "Metformin", got.DrugName)
}

func TestDrugInfoCache_KeyIsCaseInsensitive(t *testing.T) {
	cache, err := NewDrugInfoCache(domain.CacheConfig{LRUSize: 8})
	require.NoError(t, err)
	defer cache.Close()

	ctx := context.Background()
	cache.Set(ctx, "Metformin", &domain.DrugInfo{DrugName: "Metformin"})

	_, found := cache.Get(ctx, "  METFORMIN ")
	assert.True(t, found)
}

func TestDrugInfoCache_Invalidate(t *testing.T) {
	cache, err := NewDrugInfoCache(domain.CacheConfig{LRUSize: 8})
	require.NoError(t, err)
	defer cache.Close()

	ctx := context.Background()
	cache.Set(ctx, "Metformin", &domain.DrugInfo{DrugName: "Metformin"})
	cache.Invalidate(ctx, "metformin")

	_, found := cache.Get(ctx, "Metformin")
	assert.False(t, found)
}

func TestDrugInfoCache_TTLExpiry(t *testing.T) {
	cache, err := NewDrugInfoCache(domain.CacheConfig{LRUSize: 8, DefaultTTL: 20 * time.Millisecond})
	require.NoError(t, err)
	defer cache.Close()

	ctx := context.Background()
	cache.Set(ctx, "Metformin", &domain.DrugInfo{DrugName: "Metformin"})

	time.Sleep(50 * time.Millisecond)

	_, found := cache.Get(ctx, "Metformin")
	assert.False(t, found)
}

func TestDrugInfoCache_InvalidRedisURL(t *testing.T) {
	_, err := NewDrugInfoCache(domain.CacheConfig{
		RedisEnabled: true,
		RedisURL:     "not-a-url",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Redis URL")
}
