package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// statsKey is the Redis key holding the cached catalogue stats.
const statsKey = "placekit:places:stats"

// StatsCache stores the last computed Stats. A miss is (nil, nil).
type StatsCache interface {
	Get(ctx context.Context) (*Stats, error)
	Set(ctx context.Context, s *Stats) error
	Invalidate(ctx context.Context) error
}

// redisStatsCache keeps Stats as JSON in Redis with a TTL.
type redisStatsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStatsCache creates a Redis-backed stats cache.
func NewRedisStatsCache(rdb *redis.Client, ttl time.Duration) StatsCache {
	return &redisStatsCache{rdb: rdb, ttl: ttl}
}

func (c *redisStatsCache) Get(ctx context.Context) (*Stats, error) {
	data, err := c.rdb.Get(ctx, statsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cached stats: %w", err)
	}

	var s Stats
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding cached stats: %w", err)
	}
	return &s, nil
}

func (c *redisStatsCache) Set(ctx context.Context, s *Stats) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding stats: %w", err)
	}
	if err := c.rdb.Set(ctx, statsKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("caching stats: %w", err)
	}
	return nil
}

func (c *redisStatsCache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Del(ctx, statsKey).Err(); err != nil {
		return fmt.Errorf("invalidating cached stats: %w", err)
	}
	return nil
}
