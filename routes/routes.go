/*
 * @Author: AsisYu
 * @Date: 2025-04-24
 * @Description: API路由注册
 */
package routes

import (
	"net/http"
	"time"

	"whoisd/handlers"
	"whoisd/middleware"
	"whoisd/pkg/logger"
	"whoisd/services"
	"whoisd/types"
	"whoisd/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// corsConfig 允许的源来自 CORS_ORIGINS
func corsConfig(origins []string) cors.Config {
	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "X-RateLimit-Limit", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

// SetupRouter 创建Gin引擎，挂载全局中间件并注册全部路由
// 全局中间件必须在注册路由之前挂载
func SetupRouter(sc *services.ServiceContainer) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.HTTPLogger(),
		gin.Recovery(),
		cors.New(corsConfig(sc.Config.CORSOrigins)),
		middleware.Security(),
		middleware.ServiceMiddleware(sc),
	)
	r.NoRoute(func(c *gin.Context) {
		utils.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", "Route not found")
	})

	RegisterAPIRoutes(r, sc)
	return r
}

// RegisterAPIRoutes 注册所有API路由
func RegisterAPIRoutes(r *gin.Engine, sc *services.ServiceContainer) {
	cfg := sc.Config
	log := logger.Module("Routes")

	if sc.Limiter == nil {
		sc.InitializeLimiter("limit:api", cfg.RateLimitPerMinute, time.Minute)
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/api/health", middleware.HealthCheckRateLimit(), handlers.HealthCheckHandler)

	apiv1 := r.Group("/api/v1")

	rateLimit := middleware.DefaultRateLimitConfig()
	rateLimit.Limiter = sc.Limiter
	rateLimit.Rate = cfg.RateLimitPerMinute
	rateLimit.Period = time.Minute
	rateLimit.Burst = cfg.RateLimitPerMinute
	apiv1.Use(middleware.RateLimitWithConfig(rateLimit))

	if cfg.AuthEnabled {
		// 令牌接口本身有独立的签发频率限制
		r.POST("/api/auth/token", middleware.GenerateToken(sc.RedisClient, cfg.JWTSecret))
		apiv1.Use(middleware.AuthRequired(sc.RedisClient, cfg.JWTSecret))
	} else {
		log.Warn("API authentication disabled, /api/v1 is open to any client, raw queries and server overrides are off")
	}

	apiv1.Use(middleware.SizeLimit(), middleware.ErrorHandler())

	// 自动识别与批量查询
	apiv1.GET("/whois/:query", middleware.QueryValidator("query"), handlers.WhoisLookup)
	apiv1.POST("/whois/batch", middleware.JSONBodyValidator(handlers.NewBatchRequest), handlers.BatchLookup)

	// 按类型查询
	typed := []struct {
		path string
		kind types.QueryKind
	}{
		{"/tld/:query", types.KindTLD},
		{"/domain/:query", types.KindDomain},
		{"/ip/:query", types.KindIP},
		{"/asn/:query", types.KindASN},
	}
	for _, t := range typed {
		apiv1.GET(t.path, middleware.QueryValidator("query", t.kind), handlers.KindLookup(t.kind))
	}

	// 任意主机查询只对认证用户开放
	if cfg.AuthEnabled {
		apiv1.GET("/raw/:host/:query", handlers.RawQuery)
	}
	apiv1.GET("/tlds", handlers.ListTLDs)
	apiv1.GET("/servers", handlers.ListServers)
	apiv1.GET("/servers/:tld", handlers.ResolveServer)
}
