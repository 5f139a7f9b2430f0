package dedup

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// CooldownKey builds the cache key holding an alert's cooldown window.
func CooldownKey(alertID string) string {
	return "alert:cooldown:" + alertID
}

// Cache suppresses duplicate notifications across engine replicas. Keys carry
// the cooldown window as their TTL; once the TTL lapses the alert may fire
// again. The alert's triggered_at column in Postgres stays authoritative —
// the cache is only the fast path, so a Redis outage degrades to the store
// check rather than blocking notifications.
type Cache struct {
	rdb *redis.Client
}

// New creates a Cache backed by Redis.
func New(redisURL, password string) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	if password != "" {
		opts.Password = password
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Cache{rdb: rdb}, nil
}

// Close shuts down the Redis connection.
func (c *Cache) Close() error {
	return c.rdb.Close()
}

// AlreadySent returns true if key was recorded and its TTL has not lapsed.
func (c *Cache) AlreadySent(ctx context.Context, key string) bool {
	exists, err := c.rdb.Exists(ctx, key).Result()
	return err == nil && exists > 0
}

// Record marks key as sent for the given window.
func (c *Cache) Record(ctx context.Context, key string, ttl time.Duration) {
	c.rdb.Set(ctx, key, "1", ttl) //nolint:errcheck
}

// Clear removes a key so the alert can fire again immediately.
func (c *Cache) Clear(ctx context.Context, key string) {
	c.rdb.Del(ctx, key) //nolint:errcheck
}
