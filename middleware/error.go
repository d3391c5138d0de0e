/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2025-03-31 04:10:00
 * @Description: 错误处理中间件 - 将查询错误映射为HTTP状态码
 */
package middleware

import (
	"net/http"

	"whoisd/pkg/logger"
	"whoisd/services"
	"whoisd/utils"

	"github.com/gin-gonic/gin"
)

// StatusForError 查询错误 -> (HTTP状态码, API错误码)
func StatusForError(err error) (int, string) {
	code := services.ErrorCode(err)
	switch code {
	case "INVALID_QUERY":
		return http.StatusBadRequest, code
	case "TLD_NOT_FOUND", "TLD_UNSUPPORTED", "NO_WHOIS_SERVER":
		return http.StatusNotFound, code
	case "TIMEOUT":
		return http.StatusGatewayTimeout, code
	case "CONNECTION_ERROR":
		return http.StatusBadGateway, code
	case "CANCELED":
		return http.StatusRequestTimeout, code
	default:
		return http.StatusInternalServerError, code
	}
}

// ErrorHandler 处理通过 c.Error 记录、且尚未写出响应的错误
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status, code := StatusForError(err)
		message := err.Error()

		log := logger.WithRequest(c, "Error")
		if status >= http.StatusInternalServerError {
			log.Errorw("request failed", "code", code, "error", err)
		} else {
			log.Debugw("request rejected", "code", code, "error", err)
		}
		if code == "INTERNAL_ERROR" {
			message = "服务器内部错误"
		}

		utils.ErrorResponse(c, status, code, message)
	}
}
