package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"ms-eventreg/internal/logger"
)

// Coordinator is a read-through cache in front of the listing/detail
// queries, keyed by a composite of operation name and query
// parameters. It is best-effort and never authoritative: every Redis
// failure degrades to a miss so a cache outage cannot fail a request.
type Coordinator struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *logger.Logger
}

func NewCoordinator(client *redis.Client, ttl time.Duration, log *logger.Logger) *Coordinator {
	return &Coordinator{Client: client, TTL: ttl, Logger: log}
}

// Key builds a cache key from an entity namespace and query
// parameters: {entity}:{op}:{param}:... Omitted optional parameters
// must be passed as empty strings so distinct query shapes never
// collide.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// Get unmarshals a cached value into dest. The second return value
// reports a hit; any backend error is treated as a miss.
func (c *Coordinator) Get(ctx context.Context, key string, dest interface{}) bool {
	data, err := c.Client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		c.Logger.LogCache("GET", key, fmt.Sprintf("backend error, treating as miss: %v", err))
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.Logger.LogCache("GET", key, fmt.Sprintf("corrupt entry, treating as miss: %v", err))
		return false
	}
	c.Logger.LogCache("GET", key, "hit")
	return true
}

// Set stores a value with the configured TTL. Failures are logged and
// swallowed.
func (c *Coordinator) Set(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		c.Logger.LogCache("SET", key, fmt.Sprintf("marshal failed: %v", err))
		return
	}
	if err := c.Client.Set(ctx, key, data, c.TTL).Err(); err != nil {
		c.Logger.LogCache("SET", key, fmt.Sprintf("backend error: %v", err))
	}
}

// InvalidateKey deletes a single exact key, used for per-entity detail
// caches.
func (c *Coordinator) InvalidateKey(ctx context.Context, key string) {
	if err := c.Client.Del(ctx, key).Err(); err != nil {
		c.Logger.LogCache("DEL", key, fmt.Sprintf("backend error: %v", err))
	}
}

// InvalidatePrefix deletes every key starting with prefix. Listing
// caches have no targeted per-parameter invalidation, so any mutation
// of the underlying entity busts the whole namespace.
func (c *Coordinator) InvalidatePrefix(ctx context.Context, prefix string) {
	iter := c.Client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.Logger.LogCache("SCAN", prefix, fmt.Sprintf("backend error: %v", err))
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.Client.Del(ctx, keys...).Err(); err != nil {
		c.Logger.LogCache("DEL", prefix, fmt.Sprintf("backend error: %v", err))
		return
	}
	c.Logger.LogCache("DEL", prefix, fmt.Sprintf("invalidated %d keys", len(keys)))
}
