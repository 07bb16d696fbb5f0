// README: Redis read-through cache for resolved tariffs.
package pricing

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const tariffKeyPrefix = "pricing:tariff:"

type RedisCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{redis: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key Key) (Tariff, bool, error) {
	val, err := c.redis.Get(ctx, tariffKeyPrefix+key.String()).Bytes()
	if err == redis.Nil {
		return Tariff{}, false, nil
	}
	if err != nil {
		return Tariff{}, false, err
	}
	var t Tariff
	if err := json.Unmarshal(val, &t); err != nil {
		return Tariff{}, false, err
	}
	return t, true, nil
}

func (c *RedisCache) Set(ctx context.Context, t Tariff) error {
	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, tariffKeyPrefix+t.Key.String(), b, c.ttl).Err()
}
