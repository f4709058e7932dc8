package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitCacheRepository counts requests per client in fixed windows stored in Redis,
// so that every service instance shares the same budget.
type RateLimitCacheRepository struct {
	client *redis.Client
	limit  int64
	window time.Duration
	now    func() time.Time
	log    *zap.SugaredLogger
}

// NewRateLimitCacheRepository allows limit requests per key in each window.
// A non-positive limit allows everything without touching Redis.
func NewRateLimitCacheRepository(client *redis.Client, limit int, window time.Duration, log *zap.SugaredLogger) *RateLimitCacheRepository {
	return &RateLimitCacheRepository{
		client: client,
		limit:  int64(limit),
		window: window,
		now:    time.Now,
		log:    log,
	}
}

// Allow records one request for key and reports whether it fits in the current window.
func (r *RateLimitCacheRepository) Allow(ctx context.Context, key string) (bool, error) {
	if r.limit <= 0 {
		return true, nil
	}

	windowStart := r.now().Truncate(r.window).Unix()
	redisKey := fmt.Sprintf("rate_limit:%s:%d", key, windowStart)

	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.Expire(ctx, redisKey, r.window)
		return nil
	})
	if err != nil {
		r.log.Errorw("rate limit counter failed", "key", redisKey, "error", err)
		return false, err
	}

	count := incr.Val()
	r.log.Debugw("rate limit counter", "key", redisKey, "count", count, "limit", r.limit)

	return count <= r.limit, nil
}
