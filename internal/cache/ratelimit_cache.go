package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimitCache counts login attempts per client in a fixed window.
type RateLimitCache interface {
	Hit(ctx context.Context, clientID string) (int64, error)
	Reset(ctx context.Context, clientID string) error
}

type rateLimitCache struct {
	client *redis.Client
	window time.Duration
}

// NewRateLimitCache creates a new rate limit cache.
func NewRateLimitCache(client *redis.Client, window time.Duration) RateLimitCache {
	return &rateLimitCache{
		client: client,
		window: window,
	}
}

func (c *rateLimitCache) key(clientID string) string {
	return fmt.Sprintf("rl:%s", clientID)
}

// Hit increments the counter for the client and returns the new count.
// The window expiry is set only when the key is first created.
func (c *rateLimitCache) Hit(ctx context.Context, clientID string) (int64, error) {
	count, err := c.client.Incr(ctx, c.key(clientID)).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := c.client.Expire(ctx, c.key(clientID), c.window).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}

func (c *rateLimitCache) Reset(ctx context.Context, clientID string) error {
	return c.client.Del(ctx, c.key(clientID)).Err()
}
