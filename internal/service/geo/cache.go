package geo

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "geo:languages:"

// Cache stores lookup results keyed by country code (or lowercased name when
// no code is known). A total lookup failure is cached as an empty result so
// repeated clicks on an unresolvable region do not hammer the public API.
type Cache interface {
	Get(ctx context.Context, key string) (*CountryLanguages, bool)
	Set(ctx context.Context, key string, value CountryLanguages)
}

// MemoryCache is the default process-local cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]CountryLanguages
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]CountryLanguages)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*CountryLanguages, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return &entry, true
}

func (c *MemoryCache) Set(_ context.Context, key string, value CountryLanguages) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

// RedisCache shares lookup results across gateway instances.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache wraps a Redis client; ttl <= 0 keeps entries for 24 hours.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*CountryLanguages, bool) {
	val, err := c.client.Get(ctx, cacheKeyPrefix+key).Result()
	if err != nil {
		// redis.Nil and transport errors both mean "treat as miss".
		return nil, false
	}

	var entry CountryLanguages
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		return nil, false
	}
	return &entry, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value CountryLanguages) {
	val, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.client.Set(ctx, cacheKeyPrefix+key, val, c.ttl)
}
