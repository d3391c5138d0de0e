/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2025-04-10 16:12:00
 * @Description: 基于Redis的分布式限流器（限制API调用方，不限制WHOIS查询本身）
 */
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ErrLimiterUnavailable 未配置Redis
var ErrLimiterUnavailable = errors.New("rate limiter unavailable")

// slidingWindowScript 清理窗口外记录、计数、未超限时记录本次请求，整体原子执行
// 被拒绝的请求不写入窗口，否则持续重试的客户端永远无法恢复
// 返回 {allowed, count, oldestMs}
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count < limit then
	redis.call('ZADD', key, now, ARGV[4])
	redis.call('PEXPIRE', key, window * 2)
	return {1, count + 1, 0}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local oldestMs = now
if oldest[2] then
	oldestMs = tonumber(oldest[2])
end
return {0, count, oldestMs}
`)

// Decision 一次限流判断的结果，用于填充 X-RateLimit-* 响应头
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// RateLimiter 滑动窗口限流器，计数存放在Redis有序集合中，分数为毫秒时间戳
type RateLimiter struct {
	rdb       *redis.Client
	keyPrefix string
	limit     int
	window    time.Duration
}

// NewRateLimiter 创建新的限流器，rdb 为 nil 时 Take 返回 ErrLimiterUnavailable
func NewRateLimiter(rdb *redis.Client, keyPrefix string, limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window < time.Millisecond {
		window = time.Minute
	}
	return &RateLimiter{
		rdb:       rdb,
		keyPrefix: keyPrefix,
		limit:     limit,
		window:    window,
	}
}

func (rl *RateLimiter) Limit() int {
	return rl.limit
}

func (rl *RateLimiter) Window() time.Duration {
	return rl.window
}

// Available Redis是否可用
func (rl *RateLimiter) Available() bool {
	return rl != nil && rl.rdb != nil
}

// Take 为 key 消耗一次额度
func (rl *RateLimiter) Take(ctx context.Context, key string) (Decision, error) {
	if !rl.Available() {
		return Decision{Allowed: true, Limit: rl.limitOrZero()}, ErrLimiterUnavailable
	}

	now := time.Now()
	member := fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString())
	reply, err := slidingWindowScript.Run(ctx, rl.rdb,
		[]string{rl.keyPrefix + ":" + key},
		now.UnixMilli(), rl.window.Milliseconds(), rl.limit, member,
	).Result()
	if err != nil {
		return Decision{Limit: rl.limit}, err
	}
	return decisionFromReply(reply, rl.limit, rl.window, now)
}

// Allow 检查是否允许请求通过
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	d, err := rl.Take(ctx, key)
	return d.Allowed, err
}

func (rl *RateLimiter) limitOrZero() int {
	if rl == nil {
		return 0
	}
	return rl.limit
}

// decisionFromReply 把脚本返回的 {allowed, count, oldestMs} 转换为 Decision
func decisionFromReply(reply interface{}, limit int, window time.Duration, now time.Time) (Decision, error) {
	vals, ok := reply.([]interface{})
	if !ok || len(vals) != 3 {
		return Decision{Limit: limit}, fmt.Errorf("unexpected rate limit reply %v", reply)
	}
	nums := make([]int64, len(vals))
	for i, v := range vals {
		n, ok := v.(int64)
		if !ok {
			return Decision{Limit: limit}, fmt.Errorf("unexpected rate limit reply %v", reply)
		}
		nums[i] = n
	}

	d := Decision{Limit: limit}
	if nums[0] == 1 {
		d.Allowed = true
		d.Remaining = limit - int(nums[1])
		if d.Remaining < 0 {
			d.Remaining = 0
		}
		d.ResetAt = now.Add(window)
		return d, nil
	}

	// 最早的一条记录滑出窗口后才有额度
	d.ResetAt = time.UnixMilli(nums[2]).Add(window)
	d.RetryAfter = d.ResetAt.Sub(now)
	if d.RetryAfter < time.Second {
		d.RetryAfter = time.Second
	}
	return d, nil
}
