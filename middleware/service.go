/*
 * @Author: AsisYu
 * @Date: 2025-04-24
 * @Description: 服务注入中间件
 */
package middleware

import (
	"whoisd/services"

	"github.com/gin-gonic/gin"
)

// 上下文中的服务键
const (
	LookupServiceKey = "lookupService"
	HealthCheckerKey = "healthChecker"
	BreakersKey      = "breakers"
	RedisKey         = "redis"
	WorkerPoolKey    = "workerPool"
)

// ServiceMiddleware 在请求上下文中注入服务，未初始化的服务不注入
func ServiceMiddleware(container *services.ServiceContainer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if container != nil {
			if container.Lookup != nil {
				c.Set(LookupServiceKey, container.Lookup)
			}
			if container.HealthChecker != nil {
				c.Set(HealthCheckerKey, container.HealthChecker)
			}
			if container.Breakers != nil {
				c.Set(BreakersKey, container.Breakers)
			}
			if container.RedisClient != nil {
				c.Set(RedisKey, container.RedisClient)
			}
			if container.WorkerPool != nil {
				c.Set(WorkerPoolKey, container.WorkerPool)
			}
		}

		c.Next()
	}
}
