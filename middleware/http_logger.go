/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2025-12-30
 * @Description: HTTP访问日志中间件 - 使用结构化日志
 */

package middleware

import (
	"time"

	"whoisd/pkg/logger"
	"whoisd/utils"

	"github.com/gin-gonic/gin"
)

// HTTPLogger 记录HTTP请求的结构化日志
// 经过QueryValidator的请求额外记录查询内容与类型
func HTTPLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		rawQuery := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		log := logger.WithRequest(c, "HTTP")

		fields := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", statusCode,
			"latency_ms", latency.Milliseconds(),
			"user_agent", utils.TruncateString(c.Request.UserAgent(), 120),
		}
		if rawQuery != "" {
			fields = append(fields, "params", rawQuery)
		}
		if q := c.GetString(QueryKey); q != "" {
			fields = append(fields, "whois_query", utils.TruncateString(q, 255))
		}
		if kind, ok := c.Get(QueryKindKey); ok {
			fields = append(fields, "whois_kind", kind)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		message := "HTTP request completed"
		switch {
		case statusCode >= 500:
			log.With(fields...).Errorw(message)
		case statusCode >= 400:
			log.With(fields...).Warnw(message)
		default:
			log.With(fields...).Infow(message)
		}
	}
}
