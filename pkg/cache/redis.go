package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/joripage/matching-engine/pkg/orderbook"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ob:"

// RedisCache keeps snapshots as JSON under ob:<symbol>.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache returns a cache on client; ttl 0 keeps keys without expiry.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func snapshotKey(symbol string) string {
	return keyPrefix + symbol
}

func (c *RedisCache) Set(ctx context.Context, snap orderbook.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", snap.Symbol, err)
	}
	return c.client.Set(ctx, snapshotKey(snap.Symbol), data, c.ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, symbol string) (orderbook.Snapshot, bool, error) {
	data, err := c.client.Get(ctx, snapshotKey(symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return orderbook.Snapshot{}, false, nil
	}
	if err != nil {
		return orderbook.Snapshot{}, false, err
	}

	var snap orderbook.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return orderbook.Snapshot{}, false, fmt.Errorf("decode snapshot %s: %w", symbol, err)
	}
	return snap, true, nil
}

// Reset deletes every ob:* key.
func (c *RedisCache) Reset(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan snapshots: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
