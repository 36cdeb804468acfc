package inventory

import (
	"context"
	"fmt"
	"strconv"

	redis "github.com/redis/go-redis/v9"
)

// RedisChecker reads per product/warehouse availability counters maintained
// by the upstream inventory service. Missing keys mean zero stock.
type RedisChecker struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisChecker connects to Redis using a redis:// URL.
func NewRedisChecker(ctx context.Context, redisURL, keyPrefix string) (*RedisChecker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	if keyPrefix == "" {
		keyPrefix = "inventory"
	}

	return &RedisChecker{client: client, keyPrefix: keyPrefix}, nil
}

func (c *RedisChecker) Available(ctx context.Context, productID int64, warehouseID string) (int64, error) {
	key := fmt.Sprintf("%s:%d:%s", c.keyPrefix, productID, warehouseID)

	value, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return 0, nil
	}

	if err != nil {
		return 0, fmt.Errorf("failed to read availability for %s: %w", key, err)
	}

	available, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed availability counter %s=%q: %w", key, value, err)
	}

	return available, nil
}

// Close releases the underlying Redis connection.
func (c *RedisChecker) Close() error {
	return c.client.Close()
}
