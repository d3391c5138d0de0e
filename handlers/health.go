/*
 * @Author: AsisYu
 * @Date: 2025-04-24
 * @Description: 健康检查处理程序
 */
package handlers

import (
	"net/http"
	"os"
	"time"

	"whoisd/middleware"
	"whoisd/services"

	"github.com/gin-gonic/gin"
)

// HealthCheckHandler 返回最近一次健康检查结果
// 任一子项不是 up 时整体为 degraded；detailed=true 时附带各子项详情
func HealthCheckHandler(c *gin.Context) {
	detailed := c.DefaultQuery("detailed", "false") == "true"

	response := gin.H{
		"status":  "up",
		"version": os.Getenv("APP_VERSION"),
		"time":    time.Now().UTC().Format(time.RFC3339),
	}

	v, exists := c.Get(middleware.HealthCheckerKey)
	checker, ok := v.(*services.HealthChecker)
	if !exists || !ok {
		response["status"] = "unknown"
		c.JSON(http.StatusOK, response)
		return
	}

	serviceStatus := checker.GetHealthStatus()
	if last := checker.LastCheckTime(); !last.IsZero() {
		response["lastCheck"] = last.UTC().Format(time.RFC3339)
	} else {
		response["status"] = "starting"
	}

	summary := gin.H{}
	for name, info := range serviceStatus {
		status := "unknown"
		if m, ok := info.(map[string]interface{}); ok {
			if s, ok := m["status"].(string); ok {
				status = s
			}
		}
		summary[name] = status
		if status != "up" && response["status"] == "up" {
			response["status"] = "degraded"
		}
	}

	if detailed {
		response["services"] = serviceStatus
	} else {
		response["services"] = summary
	}
	c.JSON(http.StatusOK, response)
}
