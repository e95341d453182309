package redis

import (
	"fmt"

	"github.com/mcoot/territorybattle/internal/cache"
)

// generationKey holds the current cache generation counter
func (c *Cache) generationKey() string {
	return fmt.Sprintf("%s:gen", c.cfg.KeyPrefix)
}

// entryKey returns the Redis key for a cached value within a generation
func (c *Cache) entryKey(gen cache.Generation, key string) string {
	return fmt.Sprintf("%s:%d:%s", c.cfg.KeyPrefix, gen, key)
}
