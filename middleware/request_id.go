/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2025-12-30
 * @Description: Request ID中间件 - 用于请求追踪
 */

package middleware

import (
	"context"
	"time"

	"whoisd/pkg/logger"
	"whoisd/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxRequestIDLen = 64

// RequestID 生成或传播请求ID，并记录请求开始时间
// 客户端提供的X-Request-ID只在长度合法且为可打印ASCII时沿用
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(utils.StartTimeKey, time.Now())

		requestID := c.GetHeader("X-Request-ID")
		if !validRequestID(requestID) {
			requestID = uuid.New().String()
		}

		c.Set("request_id", requestID)

		// service层通过标准context获取
		ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Writer.Header().Set("X-Request-ID", requestID)

		c.Next()
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
