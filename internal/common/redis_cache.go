package common

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"linkhub/integrator/internal/logging"

	"github.com/redis/go-redis/v9"
)

const (
	redisCacheKeyPrefix = "linkhub:cache:"
	redisCacheTimeout   = 2 * time.Second
)

// RedisCache is the Cache shared between integrator instances. Failures are
// logged and treated as misses so Redis trouble only costs a reload.
type RedisCache struct {
	client *redis.Client
}

var _ Cache = (*RedisCache)(nil)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (r *RedisCache) key(k string) string {
	return redisCacheKeyPrefix + k
}

// Get returns the value as generic JSON (maps, slices, float64)
func (r *RedisCache) Get(key string) (any, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisCacheTimeout)
	defer cancel()

	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		logging.Warn("Redis cache: failed to get key", "key", key, "error", err.Error())
		return nil, false
	}

	var result any
	if err := json.Unmarshal(data, &result); err != nil {
		logging.Warn("Redis cache: failed to unmarshal value", "key", key, "error", err.Error())
		return nil, false
	}
	return result, true
}

func (r *RedisCache) GetOrLoad(key string, ttl time.Duration, load Loader) (any, bool, error) {
	if val, found := r.Get(key); found {
		return val, false, nil
	}

	val, err := load()
	if err != nil {
		return nil, true, err
	}
	r.set(key, val, ttl)
	return val, true, nil
}

func (r *RedisCache) set(key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		logging.Warn("Redis cache: failed to marshal value", "key", key, "error", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisCacheTimeout)
	defer cancel()
	if err := r.client.Set(ctx, r.key(key), data, ttl).Err(); err != nil {
		logging.Warn("Redis cache: failed to set key", "key", key, "error", err.Error())
	}
}

func (r *RedisCache) Delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), redisCacheTimeout)
	defer cancel()
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		logging.Warn("Redis cache: failed to delete key", "key", key, "error", err.Error())
	}
}
