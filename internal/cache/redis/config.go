package redis

import "time"

// Config holds Redis connection and cache behaviour settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// TTL bounds how long an entry survives without an invalidation
	TTL time.Duration

	// KeyPrefix namespaces every key written by the cache
	KeyPrefix string
}

// DefaultConfig returns sensible defaults for the Redis cache
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		TTL:          30 * time.Second,
		KeyPrefix:    "tb:lb",
	}
}
