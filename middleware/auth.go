/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2025-03-31 04:10:00
 * @Description: 认证中间件 - 一次性JWT，绑定签发IP
 */

package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"whoisd/pkg/logger"
	"whoisd/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	TokenExpiration = 30 * time.Second
	TokenIssuer     = "whoisd"

	// AuthenticatedKey 通过令牌校验的请求在上下文中标记为 true
	AuthenticatedKey = "authenticated"

	// 每个IP每分钟最多签发的令牌数
	tokensPerMinute = 30
	redisTimeout    = 500 * time.Millisecond
)

type Claims struct {
	jwt.StandardClaims
	Nonce string `json:"nonce"`
	IP    string `json:"ip"`
}

// normalizeIP 规范化IP地址，IPv4映射的IPv6地址转换为IPv4
func normalizeIP(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	parsed := net.ParseIP(trimmed)
	if parsed == nil {
		return trimmed
	}
	if v4 := parsed.To4(); v4 != nil {
		return v4.String()
	}
	return parsed.String()
}

// parseToken 校验签名算法与有效期
func parseToken(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// AuthRequired 校验 Authorization: Bearer <token>
// rdb 非空时每个nonce只能使用一次；Redis故障时放行并记录警告
func AuthRequired(rdb *redis.Client, secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		log := logger.WithRequest(c, "Auth")

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			utils.AbortWithError(c, http.StatusUnauthorized, "MISSING_TOKEN", "Missing authorization header")
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			utils.AbortWithError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid authorization header format")
			return
		}
		tokenString := strings.TrimSpace(authHeader[len(bearerPrefix):])
		if tokenString == "" {
			utils.AbortWithError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Empty token")
			return
		}

		claims, err := parseToken(tokenString, key)
		if err != nil {
			log.Debugf("token validation failed: %v", err)
			utils.AbortWithError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid token")
			return
		}

		requestIP := normalizeIP(c.ClientIP())
		tokenIP := normalizeIP(claims.IP)
		if requestIP == "" || tokenIP == "" || requestIP != tokenIP {
			log.Warnw("token IP mismatch", "token_ip", claims.IP, "nonce", claims.Nonce)
			utils.AbortWithError(c, http.StatusUnauthorized, "IP_BINDING_FAILED", "Token IP mismatch")
			return
		}

		if rdb != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), redisTimeout)
			fresh, err := rdb.SetNX(ctx, utils.NonceKey(claims.Nonce), 1, TokenExpiration).Result()
			cancel()
			if err != nil {
				log.Warnf("nonce check skipped, redis error: %v", err)
			} else if !fresh {
				utils.AbortWithError(c, http.StatusUnauthorized, "TOKEN_REUSED", "Token already used")
				return
			}
		}

		c.Set(AuthenticatedKey, true)
		c.Next()
	}
}

// GenerateToken 签发短期令牌
// rdb 为空或不可用时，签发频率由进程内限流器控制
func GenerateToken(rdb *redis.Client, secret string) gin.HandlerFunc {
	key := []byte(secret)
	memory := NewIPRateLimiter(rate.Every(time.Minute/tokensPerMinute), tokensPerMinute)

	return func(c *gin.Context) {
		log := logger.WithRequest(c, "Auth")
		clientIP := c.ClientIP()

		if !allowTokenIssue(c, rdb, memory, clientIP) {
			utils.AbortWithError(c, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "请求过于频繁")
			return
		}

		now := time.Now()
		claims := Claims{
			StandardClaims: jwt.StandardClaims{
				ExpiresAt: now.Add(TokenExpiration).Unix(),
				IssuedAt:  now.Unix(),
				Issuer:    TokenIssuer,
			},
			Nonce: uuid.New().String(),
			IP:    clientIP,
		}

		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
		if err != nil {
			log.Errorf("sign token: %v", err)
			utils.AbortWithError(c, http.StatusInternalServerError, "TOKEN_GENERATION_FAILED", "Failed to generate token")
			return
		}

		utils.SuccessResponse(c, gin.H{
			"token":     signed,
			"expiresIn": int(TokenExpiration.Seconds()),
		}, nil)
	}
}

func allowTokenIssue(c *gin.Context, rdb *redis.Client, memory *IPRateLimiter, ip string) bool {
	if rdb == nil {
		return memory.Allow(ip)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), redisTimeout)
	defer cancel()

	key := utils.TokenIssueKey(ip)
	count, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		logger.WithRequest(c, "Auth").Warnf("token throttle falling back to memory: %v", err)
		return memory.Allow(ip)
	}
	if count == 1 {
		rdb.Expire(ctx, key, time.Minute)
	}
	return count <= tokensPerMinute
}
