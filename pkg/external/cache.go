package external

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"

	"github.com/drug-response-server/internal/domain"
)

// DrugInfoCache is a two-tier cache for aggregated drug information: an
// in-process expirable LRU in front, with Redis layered behind it when
// enabled. Drug-info enrichment is advisory, so every cache failure is
// a miss, never an error.
type DrugInfoCache struct {
	lru        *expirable.LRU[string, *domain.DrugInfo]
	redis      *redis.Client
	defaultTTL time.Duration
}

// cachedDrugInfo wraps a Redis entry with expiry metadata
type cachedDrugInfo struct {
	Data      *domain.DrugInfo `json:"data"`
	CachedAt  time.Time        `json:"cached_at"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// NewDrugInfoCache creates a drug-info cache from cache configuration.
// A Redis connection failure degrades to LRU-only operation.
func NewDrugInfoCache(config domain.CacheConfig) (*DrugInfoCache, error) {
	if config.LRUSize <= 0 {
		config.LRUSize = 512
	}
	if config.DefaultTTL == 0 {
		config.DefaultTTL = 24 * time.Hour
	}

	cache := &DrugInfoCache{
		lru:        expirable.NewLRU[string, *domain.DrugInfo](config.LRUSize, nil, config.DefaultTTL),
		defaultTTL: config.DefaultTTL,
	}

	if config.RedisEnabled {
		opts, err := redis.ParseURL(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		opts.PoolSize = config.PoolSize
		opts.MaxRetries = config.MaxRetries

		client := redis.NewClient(opts)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}

		cache.redis = client
	}

	return cache, nil
}

// Get retrieves a cached drug-info record
func (c *DrugInfoCache) Get(ctx context.Context, drugName string) (*domain.DrugInfo, bool) {
	key := cacheKey(drugName)

	if info, ok := c.lru.Get(key); ok {
		return info, true
	}

	if c.redis == nil {
		return nil, false
	}

	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return nil, false
	}

	var cached cachedDrugInfo
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		c.redis.Del(ctx, key)
		return nil, false
	}
	if time.Now().After(cached.ExpiresAt) {
		c.redis.Del(ctx, key)
		return nil, false
	}

	// Re-warm the front tier
	c.lru.Add(key, cached.Data)

	return cached.Data, true
}

// Set caches a drug-info record in both tiers
func (c *DrugInfoCache) Set(ctx context.Context, drugName string, info *domain.DrugInfo) {
	key := cacheKey(drugName)
	c.lru.Add(key, info)

	if c.redis == nil {
		return
	}

	cached := cachedDrugInfo{
		Data:      info,
		CachedAt:  time.Now(),
		ExpiresAt: time.Now().Add(c.defaultTTL),
	}
	jsonData, err := json.Marshal(cached)
	if err != nil {
		return
	}
	c.redis.Set(ctx, key, jsonData, c.defaultTTL)
}

// Invalidate removes a drug from both cache tiers
func (c *DrugInfoCache) Invalidate(ctx context.Context, drugName string) {
	key := cacheKey(drugName)
	c.lru.Remove(key)
	if c.redis != nil {
		c.redis.Del(ctx, key)
	}
}

// Close closes the Redis connection if one exists
func (c *DrugInfoCache) Close() error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Close()
}

// cacheKey builds the cache key for a drug name
func cacheKey(drugName string) string {
	return "druginfo:" + strings.ToLower(strings.TrimSpace(drugName))
}
