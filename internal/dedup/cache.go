package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache is an optional Redis-backed "pid already seen" suppression layer
// that survives process restarts. It is always fail-open: any Redis error
// is logged and treated as a miss so a down cache never blocks discovery.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// New returns nil if addr is empty, signaling the cache is disabled.
func New(addr, username, password string, db int, ttl time.Duration, log *zap.Logger) *Cache {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		DB:       db,
	})
	return &Cache{client: client, ttl: ttl, log: log}
}

func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// SeenRecently reports whether pid was already marked seen. As a side
// effect it marks pid as seen for future calls (SETNX semantics): a false
// return means this call is the one that claimed it.
func (c *Cache) SeenRecently(pid string) bool {
	if c == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	key := fmt.Sprintf("crawler:seen:%s", pid)
	ok, err := c.client.SetNX(ctx, key, 1, c.ttl).Result()
	if err != nil {
		if c.log != nil {
			c.log.Warn("dedup cache error, treating as miss", zap.String("pid", pid), zap.Error(err))
		}
		return false
	}
	// SetNX returns true when the key was newly set (not seen before).
	return !ok
}
