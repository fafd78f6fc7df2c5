package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/VanshSharma0/MyTube/internal/util"
)

// RateLimiter is a fixed-window counter. Once a key exceeds the limit inside
// one window, it is blocked for the configured block time.
type RateLimiter struct {
	client    *redis.Client
	limit     int
	interval  time.Duration
	blockTime time.Duration
}

func NewRateLimiter(client *redis.Client, cfg *util.RateLimiterConfig) *RateLimiter {
	return &RateLimiter{
		client:    client,
		limit:     cfg.Limit,
		interval:  cfg.Interval,
		blockTime: cfg.BlockTime,
	}
}

func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	blockKey := "ratelimit:block:" + key
	countKey := "ratelimit:count:" + key

	blocked, err := l.client.Exists(ctx, blockKey).Result()
	if err != nil {
		return false, fmt.Errorf("check block key: %w", err)
	}
	if blocked > 0 {
		return false, nil
	}

	count, err := l.client.Incr(ctx, countKey).Result()
	if err != nil {
		return false, fmt.Errorf("incr count key: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, countKey, l.interval).Err(); err != nil {
			return false, fmt.Errorf("expire count key: %w", err)
		}
	}

	if count > int64(l.limit) {
		if err := l.client.Set(ctx, blockKey, "blocked", l.blockTime).Err(); err != nil {
			return false, fmt.Errorf("set block key: %w", err)
		}
		return false, nil
	}

	return true, nil
}
