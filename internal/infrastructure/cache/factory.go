package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vitaguide/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewCatalogCacheFromConfig builds the catalog cache. When Redis is enabled but
// unreachable the cache runs without the shared store and logs a warning.
// The returned client is nil unless Redis is in use; callers close it on shutdown.
func NewCatalogCacheFromConfig(cfg config.CacheConfig, redisCfg config.RedisConfig, logger *zap.Logger, opts ...CatalogCacheOption) (*CatalogCache, *redis.Client) {
	base := []CatalogCacheOption{
		WithTTL(cfg.TTL),
		WithCleanupInterval(cfg.CleanupInterval),
		WithCacheLogger(logger),
	}

	var client *redis.Client
	if cfg.SharedStore {
		c, err := newRedisClient(redisCfg)
		if err != nil {
			logger.Warn("Redis unavailable, catalog cache falls back to in-memory only", zap.Error(err))
		} else {
			client = c
			base = append(base, WithCardStore(NewRedisCardStore(client, cfg.KeyPrefix)))
			logger.Info("Catalog cache using Redis shared store", zap.String("addr", redisCfg.Addr()))
		}
	}

	return NewCatalogCache(append(base, opts...)...), client
}

func newRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}
