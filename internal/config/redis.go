package config

// Redis backs both the version-counter response cache and the image job
// queues, so unlike an optional cache it is a hard startup dependency: a
// client that cannot reach the server at boot aborts the process.

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient instantiates a Redis client from the loaded configuration
// and verifies connectivity with a short ping.  The error carries enough
// context for the fatal startup log.
func NewRedisClient(cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisHost + ":" + cfg.RedisPort,
		Password: cfg.RedisPassword,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping %s:%s: %w", cfg.RedisHost, cfg.RedisPort, err)
	}
	return client, nil
}
