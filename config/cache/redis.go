package cache

import (
	"context"
	"time"

	"notevault/config"
	"notevault/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// Connect builds the Redis client and pings it once. The cache is optional:
// on failure the service runs uncached, so this returns nil instead of an
// error and leaves the decision to the caller.
func Connect(cfg config.RedisConfig) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Sugar.Warnf("Redis unreachable at %s, running without cache: %v", cfg.Addr, err)
		client.Close()
		return nil
	}
	logger.Sugar.Info("Successfully connected to redis")
	return client
}
