package infra

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const summaryVersionKey = "cashup:summary:version"

// SummaryCache stores rendered weekly summaries in Redis. Entries are keyed
// under a version counter so a single INCR invalidates every cached week.
type SummaryCache struct {
	rdb *redis.Client
}

func NewSummaryCache(rdb *redis.Client) *SummaryCache {
	return &SummaryCache{rdb: rdb}
}

// Version returns the current generation; a missing key is generation 0.
func (c *SummaryCache) Version(ctx context.Context) (int64, error) {
	v, err := c.rdb.Get(ctx, summaryVersionKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return v, err
}

// Bump invalidates all cached summaries.
func (c *SummaryCache) Bump(ctx context.Context) error {
	return c.rdb.Incr(ctx, summaryVersionKey).Err()
}

func (c *SummaryCache) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

func (c *SummaryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}
