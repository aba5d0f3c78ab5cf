package common

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryCache is the in-process Cache used when Redis is not configured
type MemoryCache struct {
	items *cache.Cache
}

var _ Cache = (*MemoryCache)(nil)

func NewMemoryCache(defaultTTL, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{items: cache.New(defaultTTL, cleanupInterval)}
}

func (m *MemoryCache) Get(key string) (any, bool) {
	return m.items.Get(key)
}

func (m *MemoryCache) GetOrLoad(key string, ttl time.Duration, load Loader) (any, bool, error) {
	if val, found := m.items.Get(key); found {
		return val, false, nil
	}

	val, err := load()
	if err != nil {
		return nil, true, err
	}
	m.items.Set(key, val, ttl)
	return val, true, nil
}

func (m *MemoryCache) Delete(key string) {
	m.items.Delete(key)
}
