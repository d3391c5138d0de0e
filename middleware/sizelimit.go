/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2025-04-28 10:26:00
 * @Description: 请求大小限制中间件
 */
package middleware

import (
	"fmt"
	"net/http"

	"whoisd/utils"

	"github.com/gin-gonic/gin"
)

// SizeLimitConfig 请求大小限制配置
type SizeLimitConfig struct {
	Limit           int64    // 请求体大小限制（字节）
	Message         string   // 超过限制时返回的错误消息
	ExcludedMethods []string // 跳过检查的HTTP方法
}

// DefaultSizeLimitConfig 默认64KB，足够容纳一次最大批量查询
func DefaultSizeLimitConfig() SizeLimitConfig {
	return SizeLimitConfig{
		Limit:           64 * 1024,
		Message:         "请求体过大",
		ExcludedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
	}
}

// SizeLimit 大小限制中间件
func SizeLimit() gin.HandlerFunc {
	return SizeLimitWithConfig(DefaultSizeLimitConfig())
}

// SizeLimitWithConfig 带配置的大小限制中间件
// 声明了Content-Length的请求直接拒绝；未声明的请求体在读取时被截断，由绑定步骤报错
func SizeLimitWithConfig(config SizeLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, m := range config.ExcludedMethods {
			if c.Request.Method == m {
				c.Next()
				return
			}
		}

		if c.Request.ContentLength > config.Limit {
			utils.AbortWithError(c, http.StatusRequestEntityTooLarge, "REQUEST_ENTITY_TOO_LARGE",
				fmt.Sprintf("%s，最大允许大小为 %d 字节", config.Message, config.Limit))
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, config.Limit)
		c.Next()
	}
}
