// Package ratelimit 提供基于 Redis 的 GCRA 限流器
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

// RateLimiter 限流器接口
type RateLimiter interface {
	// Allow 判断 key 是否还有配额
	Allow(ctx context.Context, key string, limit Limit) (*Result, error)
}

// Limit 限流规则，Burst 为 0 时等于 Rate
type Limit struct {
	Rate   int
	Period time.Duration
	Burst  int
}

// Result 限流判定结果
type Result struct {
	Allowed    bool
	Remaining  int
	ResetAfter time.Duration
	RetryAfter time.Duration
}

// RedisRateLimiter 基于 redis_rate 的限流器
type RedisRateLimiter struct {
	limiter *redis_rate.Limiter
}

// NewRedisRateLimiter 创建限流器
func NewRedisRateLimiter(rdb *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{
		limiter: redis_rate.NewLimiter(rdb),
	}
}

// Allow 判断是否放行
func (r *RedisRateLimiter) Allow(ctx context.Context, key string, limit Limit) (*Result, error) {
	res, err := r.limiter.Allow(ctx, key, toRedisLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}
	return toResult(res), nil
}

func toRedisLimit(limit Limit) redis_rate.Limit {
	if limit.Period <= 0 {
		limit.Period = time.Second
	}
	if limit.Burst <= 0 {
		limit.Burst = limit.Rate
	}
	return redis_rate.Limit{
		Rate:   limit.Rate,
		Period: limit.Period,
		Burst:  limit.Burst,
	}
}

func toResult(res *redis_rate.Result) *Result {
	return &Result{
		Allowed:    res.Allowed > 0,
		Remaining:  res.Remaining,
		ResetAfter: res.ResetAfter,
		RetryAfter: res.RetryAfter,
	}
}
