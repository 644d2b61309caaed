package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// StatusCache keeps the last known gateway status per payment ID so the
// status endpoint doesn't hit the database on every poll from the front-end.
type StatusCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewStatusCache(client *redis.Client, ttl time.Duration) *StatusCache {
	return &StatusCache{Client: client, TTL: ttl}
}

func (c *StatusCache) key(paymentID string) string {
	return "payment_status:" + paymentID
}

func (c *StatusCache) SetStatus(paymentID, status string) error {
	return c.Client.Set(context.Background(), c.key(paymentID), status, c.TTL).Err()
}

// GetStatus returns "" with no error on a cache miss.
func (c *StatusCache) GetStatus(paymentID string) (string, error) {
	val, err := c.Client.Get(context.Background(), c.key(paymentID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}
