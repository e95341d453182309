package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/territorybattle/internal/cache"
	rediscache "github.com/mcoot/territorybattle/internal/cache/redis"
	"github.com/mcoot/territorybattle/internal/dependencies/clock"
	"github.com/mcoot/territorybattle/internal/events"
	"github.com/mcoot/territorybattle/internal/services/stats"
	"github.com/mcoot/territorybattle/internal/storage"
	"github.com/mcoot/territorybattle/internal/storage/memory"
	"github.com/mcoot/territorybattle/internal/storage/postgres"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypePostgres = "postgres"
)

// App contains all wired application components
type App struct {
	Storage   storage.Storage
	Cache     cache.Cache
	Publisher events.Publisher

	Clock clock.Clock

	Stats *stats.Service
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "postgres")
	// If empty, defaults to "memory"
	StorageType string
	// PostgresConfig is required if StorageType is "postgres"
	PostgresConfig *postgres.Config
	// RedisConfig enables the leaderboard cache (optional)
	RedisConfig *rediscache.Config
	// NATSConfig enables game-recorded events (optional)
	NATSConfig *events.NATSConfig
}

// New creates a new application with all dependencies wired.
// Anything opened before a failure is closed again.
func New(ctx context.Context, cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypePostgres:
		if cfg.PostgresConfig == nil {
			return nil, errors.New("PostgresConfig required when StorageType is postgres")
		}
		pg, err := postgres.New(ctx, *cfg.PostgresConfig)
		if err != nil {
			return nil, err
		}
		store = pg
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'memory' or 'postgres'", storageType)
	}

	var c cache.Cache = cache.Nop{}
	if cfg.RedisConfig != nil {
		rc, err := rediscache.New(*cfg.RedisConfig)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		c = rc
	}

	var pub events.Publisher = events.Nop{}
	if cfg.NATSConfig != nil {
		np, err := events.NewNATSPublisher(*cfg.NATSConfig)
		if err != nil {
			_ = c.Close()
			_ = store.Close()
			return nil, err
		}
		pub = np
	}

	return newWithDependencies(store, c, pub, clock.New(), logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	c cache.Cache,
	pub events.Publisher,
	clk clock.Clock,
	logger *slog.Logger,
) *App {
	return &App{
		Storage:   store,
		Cache:     c,
		Publisher: pub,
		Clock:     clk,
		Stats:     stats.New(store, c, pub, clk, logger),
	}
}

// Close releases the publisher, cache and storage, in that order
func (a *App) Close() error {
	return errors.Join(
		a.Publisher.Close(),
		a.Cache.Close(),
		a.Storage.Close(),
	)
}
