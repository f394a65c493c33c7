package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/storeops/backend/internal/application/inventory"
	"github.com/storeops/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Store is an inventory.Cache that owns resources to release on shutdown
type Store interface {
	inventory.Cache
	Close() error
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

// Factory builds the cache backend from configuration
type Factory struct {
	cfg                   config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to a
// memory cache instead of failing startup. Defaults to true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a new factory
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		cfg:                   cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns the cache store and, when Redis is in use, its client so
// other components (the order lock) can share the connection pool.
// The returned client is nil for the memory fallback.
func (f *Factory) Create(ctx context.Context) (Store, *redis.Client, error) {
	if !f.cfg.Enabled() {
		f.logger.Info("Redis not configured, using in-memory cache")
		return NewMemoryCache(time.Minute), nil, nil
	}

	client, err := NewRedisClient(ctx, f.cfg)
	if err == nil {
		f.logger.Info("Using Redis cache", zap.String("addr", f.cfg.Addr()))
		return &ownedRedisCache{RedisCache: NewRedisCache(client, DefaultKeyPrefix), client: client}, client, nil
	}
	if !f.allowInMemoryFallback {
		return nil, nil, err
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory cache. "+
		"Invalidations will not reach other instances.",
		zap.Error(err),
	)
	return NewMemoryCache(time.Minute), nil, nil
}

// ownedRedisCache closes the client it was built with
type ownedRedisCache struct {
	*RedisCache
	client *redis.Client
}

func (c *ownedRedisCache) Close() error {
	return c.client.Close()
}
