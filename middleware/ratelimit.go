/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2025-03-31 04:10:00
 * @Description: 限流中间件 - Redis滑动窗口，Redis不可用时退回进程内限流
 */
package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"whoisd/pkg/logger"
	"whoisd/services"
	"whoisd/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// IPRateLimiter 内存中的按键限流器
type IPRateLimiter struct {
	ips map[string]*rate.Limiter
	mu  sync.Mutex
	r   rate.Limit
	b   int
}

// RateLimitConfig 限流器配置
type RateLimitConfig struct {
	Limiter    *services.RateLimiter // Redis滑动窗口，可为nil
	Key        string                // 限流器键前缀
	Rate       int                   // 周期内允许的请求数
	Period     time.Duration         // 限流周期
	Burst      int                   // 内存限流允许的突发请求数
	IPLookup   []string              // IP查找方法，为空时使用gin的ClientIP
	ExcludeIPs []string              // 不限流的IP或CIDR
	Message    string                // 超限消息
}

// DefaultRateLimitConfig 默认限流器配置
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Key:     "limit:api",
		Rate:    60,
		Period:  time.Minute,
		Burst:   10,
		Message: "请求过于频繁，请稍后再试",
	}
}

// NewIPRateLimiter 创建一个新的IP限流器
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips: make(map[string]*rate.Limiter),
		r:   r,
		b:   b,
	}
}

func (i *IPRateLimiter) getLimiter(key string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	limiter, exists := i.ips[key]
	if !exists {
		limiter = rate.NewLimiter(i.r, i.b)
		i.ips[key] = limiter
	}
	return limiter
}

// Allow 检查是否允许请求
func (i *IPRateLimiter) Allow(key string) bool {
	return i.getLimiter(key).Allow()
}

// Len 当前跟踪的键数量
func (i *IPRateLimiter) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.ips)
}

// getClientIP 按配置顺序获取客户端IP
func getClientIP(c *gin.Context, methods []string) string {
	for _, method := range methods {
		switch method {
		case "X-Forwarded-For":
			if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
				return strings.TrimSpace(strings.Split(forwarded, ",")[0])
			}
		case "X-Real-IP":
			if ip := c.GetHeader("X-Real-IP"); ip != "" {
				return strings.TrimSpace(ip)
			}
		case "RemoteAddr":
			if ip, _, err := net.SplitHostPort(c.Request.RemoteAddr); err == nil {
				return ip
			}
		}
	}
	return c.ClientIP()
}

// isExcludedIP 检查IP是否在排除列表中，支持CIDR
func isExcludedIP(ip string, excludeIPs []string) bool {
	parsed := net.ParseIP(ip)
	for _, excluded := range excludeIPs {
		if ip == excluded {
			return true
		}
		if strings.Contains(excluded, "/") && parsed != nil {
			if _, ipNet, err := net.ParseCIDR(excluded); err == nil && ipNet.Contains(parsed) {
				return true
			}
		}
	}
	return false
}

// RateLimit 限流中间件
func RateLimit() gin.HandlerFunc {
	return RateLimitWithConfig(DefaultRateLimitConfig())
}

// RateLimitWithConfig 限流中间件（可配置）
// 计数按 IP + 路由模板，/api/v1/whois/:query 的所有查询共享一个额度
func RateLimitWithConfig(config RateLimitConfig) gin.HandlerFunc {
	if config.Rate <= 0 {
		config.Rate = DefaultRateLimitConfig().Rate
	}
	if config.Period <= 0 {
		config.Period = time.Minute
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}
	memory := NewIPRateLimiter(rate.Limit(float64(config.Rate)/config.Period.Seconds()), config.Burst)

	return func(c *gin.Context) {
		ip := getClientIP(c, config.IPLookup)
		if isExcludedIP(ip, config.ExcludeIPs) {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		identifier := utils.BuildKey(config.Key, ip, route)

		d := takeRequest(c, config.Limiter, memory, identifier, config)
		setRateLimitHeaders(c, d)
		if !d.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(d.RetryAfter.Seconds())))
			utils.AbortWithError(c, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", config.Message)
			return
		}

		c.Next()
	}
}

// takeRequest 优先使用Redis，不可用或出错时退回内存限流
// 内存限流没有剩余额度信息，拒绝时按整个周期计算重试时间
func takeRequest(c *gin.Context, limiter *services.RateLimiter, memory *IPRateLimiter, identifier string, config RateLimitConfig) services.Decision {
	if limiter.Available() {
		ctx, cancel := context.WithTimeout(c.Request.Context(), redisTimeout)
		d, err := limiter.Take(ctx, identifier)
		cancel()
		if err == nil {
			return d
		}
		if !errors.Is(err, services.ErrLimiterUnavailable) {
			logger.WithRequest(c, "RateLimit").Warnf("redis limiter error, using memory limiter: %v", err)
		}
	}

	now := time.Now()
	if memory.Allow(identifier) {
		return services.Decision{Allowed: true, Limit: config.Rate, Remaining: -1, ResetAt: now.Add(config.Period)}
	}
	return services.Decision{Limit: config.Rate, ResetAt: now.Add(config.Period), RetryAfter: config.Period}
}

// setRateLimitHeaders Remaining 为负表示未知，此时不输出剩余额度
func setRateLimitHeaders(c *gin.Context, d services.Decision) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	switch {
	case !d.Allowed:
		c.Header("X-RateLimit-Remaining", "0")
	case d.Remaining >= 0:
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	}
	c.Header("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
}

// HealthCheckRateLimit 健康检查限流中间件，只使用内存限流
func HealthCheckRateLimit() gin.HandlerFunc {
	config := DefaultRateLimitConfig()
	config.Key = "limit:health"
	config.Rate = 300
	config.Burst = 30
	config.Message = "健康检查请求过于频繁"
	return RateLimitWithConfig(config)
}
