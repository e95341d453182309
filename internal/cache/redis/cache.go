package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/territorybattle/internal/cache"
)

// Cache is a Redis-backed implementation of the cache interface
type Cache struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis cache and verifies the connection
func New(cfg Config) (*Cache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Cache{client: client, cfg: cfg}, nil
}

// NewWithClient creates a Redis cache with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Cache {
	return &Cache{client: client, cfg: cfg}
}

// Ensure Cache implements the interface
var _ cache.Cache = (*Cache)(nil)

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) generation(ctx context.Context) (cache.Generation, error) {
	gen, err := c.client.Get(ctx, c.generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return cache.Generation(gen), nil
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, cache.Generation, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, 0, err
	}

	data, err := c.client.Get(ctx, c.entryKey(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, cache.ErrMiss
	}
	if err != nil {
		return nil, gen, err
	}
	return data, gen, nil
}

func (c *Cache) Set(ctx context.Context, key string, gen cache.Generation, value []byte) error {
	return c.client.Set(ctx, c.entryKey(gen, key), value, c.cfg.TTL).Err()
}

// Invalidate bumps the generation counter; old entries expire through their TTL
func (c *Cache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, c.generationKey()).Err()
}
