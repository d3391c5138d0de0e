/*
 * @Author: AsisYu
 * @Date: 2025-04-24
 * @Description: API响应工具
 */
package utils

import (
	"time"

	"github.com/gin-gonic/gin"
)

// StartTimeKey 请求开始时间在gin上下文中的键，由RequestID中间件写入
const StartTimeKey = "request_start"

// 统一响应结构
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *MetaInfo   `json:"meta,omitempty"`
}

// 错误信息结构
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// 元信息结构
type MetaInfo struct {
	Timestamp  string   `json:"timestamp"`
	RequestID  string   `json:"requestId,omitempty"`
	Version    string   `json:"version,omitempty"`
	Servers    []string `json:"servers,omitempty"`
	Processing int64    `json:"processingTimeMs,omitempty"`
}

// Version API版本号
const Version = "1.0"

// NewMeta 根据请求上下文生成元信息
func NewMeta(c *gin.Context) *MetaInfo {
	meta := &MetaInfo{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: c.GetString("request_id"),
		Version:   Version,
	}
	if start := c.GetTime(StartTimeKey); !start.IsZero() {
		meta.Processing = time.Since(start).Milliseconds()
	}
	return meta
}

// SuccessResponse 统一成功响应，meta 为 nil 时自动生成
func SuccessResponse(c *gin.Context, data interface{}, meta *MetaInfo) {
	if meta == nil {
		meta = NewMeta(c)
	}

	c.JSON(200, APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

// ErrorResponse 统一错误响应
func ErrorResponse(c *gin.Context, statusCode int, errorCode string, message string) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    errorCode,
			Message: message,
		},
		Meta: NewMeta(c),
	})
}

// AbortWithError 写入错误响应并终止后续处理
func AbortWithError(c *gin.Context, statusCode int, errorCode string, message string) {
	ErrorResponse(c, statusCode, errorCode, message)
	c.Abort()
}
