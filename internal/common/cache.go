package common

import "time"

// Loader produces a value to cache on a miss
type Loader func() (any, error)

// Cache is the read-through cache shared by the directory and stats lookups.
// MemoryCache and RedisCache implement it.
type Cache interface {
	// Get returns the cached value for key. RedisCache returns generic JSON
	// rather than the stored Go type.
	Get(key string) (any, bool)

	// GetOrLoad returns the cached value, or runs load and caches its result
	// for ttl. loaded reports whether load ran.
	GetOrLoad(key string, ttl time.Duration, load Loader) (val any, loaded bool, err error)

	// Delete drops key so the next read loads it again
	Delete(key string)
}
