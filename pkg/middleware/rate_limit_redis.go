package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// fixedWindow counts requests per key in Redis buckets of one window each, so
// every replica sharing the Redis instance enforces the same budget.
type fixedWindow struct {
	client  *redis.Client
	seconds int64
	allowed int64
}

func newFixedWindow(client *redis.Client, rps float64, burst int, window time.Duration) *fixedWindow {
	seconds := int64(window / time.Second)
	if seconds <= 0 {
		seconds = 1
	}
	return &fixedWindow{
		client:  client,
		seconds: seconds,
		allowed: int64(rps*float64(seconds)) + int64(burst),
	}
}

func (w *fixedWindow) allow(ctx context.Context, key string) (bool, int, error) {
	bucket := fmt.Sprintf("rl:%s:%d", key, time.Now().Unix()/w.seconds)

	var hits *redis.IntCmd
	_, err := w.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		hits = pipe.Incr(ctx, bucket)
		pipe.Expire(ctx, bucket, time.Duration(w.seconds+1)*time.Second)
		return nil
	})
	if err != nil {
		return false, 0, fmt.Errorf("count %s: %w", bucket, err)
	}
	return hits.Val() <= w.allowed, int(w.seconds), nil
}

// RedisRateLimitMiddleware enforces a fixed-window limit shared through Redis:
// at most floor(rps*window)+burst requests per key per window.
// A nil client falls back to the in-process limiter.
func RedisRateLimitMiddleware(client *redis.Client, rps float64, burst int, window time.Duration) gin.HandlerFunc {
	if client == nil {
		return RateLimitMiddleware(rps, burst)
	}
	return rateLimit("redis", newFixedWindow(client, rps, burst, window))
}
