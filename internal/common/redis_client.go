package common

import (
	"context"
	"fmt"
	"time"

	"linkhub/integrator/internal/logging"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to Redis at host:port. The client is returned even
// when the first ping fails; the pool keeps retrying in the background.
func NewRedisClient(host, port, password string) (*redis.Client, error) {
	redisDB := 0 // Default DB

	addr := fmt.Sprintf("%s:%s", host, port)
	logging.Info("Initializing Redis client", "addr", addr, "db", redisDB)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           redisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return client, fmt.Errorf("failed to ping Redis at %s: %w", addr, err)
	}

	logging.Info("Connected to Redis", "addr", addr)
	return client, nil
}
