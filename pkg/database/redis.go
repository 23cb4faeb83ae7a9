package database

import (
	"context"
	"log"
	"time"

	"go-storefront/pkg/config"

	"github.com/redis/go-redis/v9"
)

// InitRedis connects the catalog cache. Returns nil when no address is
// configured so callers can run uncached.
func InitRedis(cfg config.RedisConfig) *redis.Client {
	if cfg.Address == "" {
		log.Println("Redis not configured, catalog cache disabled")
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.Db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	log.Println("Redis connected successfully")
	return rdb
}
