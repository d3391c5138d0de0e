/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2025-01-17 23:47:06
 * @Description: Web安全响应头中间件
 */
package middleware

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// SecurityConfig 安全中间件配置
type SecurityConfig struct {
	ContentSecurityPolicy string // 为空时不设置
	FrameOptions          string
	ContentTypeOptions    string
	ReferrerPolicy        string
	PermissionsPolicy     string
	HSTSMaxAge            int // 秒，0表示不发送HSTS
	HSTSIncludeSubDomains bool
	HSTSPreload           bool
}

// DefaultSecurityConfig 纯JSON API的默认配置
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		FrameOptions:          "DENY",
		ContentTypeOptions:    "nosniff",
		ReferrerPolicy:        "no-referrer",
		PermissionsPolicy:     "geolocation=(), microphone=(), camera=()",
		HSTSMaxAge:            31536000, // 1年
		HSTSIncludeSubDomains: true,
	}
}

// Security 标准安全中间件
func Security() gin.HandlerFunc {
	return SecurityWithConfig(DefaultSecurityConfig())
}

// SecurityWithConfig 带配置的安全中间件
// HSTS只在HTTPS请求（直连TLS或反向代理声明 X-Forwarded-Proto: https）上发送
func SecurityWithConfig(config SecurityConfig) gin.HandlerFunc {
	hsts := ""
	if config.HSTSMaxAge > 0 {
		hsts = "max-age=" + strconv.Itoa(config.HSTSMaxAge)
		if config.HSTSIncludeSubDomains {
			hsts += "; includeSubDomains"
		}
		if config.HSTSPreload {
			hsts += "; preload"
		}
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", config.ContentTypeOptions)
		h.Set("X-Frame-Options", config.FrameOptions)
		h.Set("Referrer-Policy", config.ReferrerPolicy)
		h.Set("Permissions-Policy", config.PermissionsPolicy)
		if config.ContentSecurityPolicy != "" {
			h.Set("Content-Security-Policy", config.ContentSecurityPolicy)
		}
		if hsts != "" && isHTTPS(c) {
			h.Set("Strict-Transport-Security", hsts)
		}

		c.Next()
	}
}

func isHTTPS(c *gin.Context) bool {
	return c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https")
}
