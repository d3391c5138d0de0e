/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2025-01-17 21:35:10
 * @Description: whoisd HTTP服务入口
 */
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"whoisd/config"
	"whoisd/pkg/logger"
	"whoisd/routes"
	"whoisd/services"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// newRedisClient REDIS_ADDR 未配置时返回nil，限流与nonce校验退回进程内实现
func newRedisClient(cfg *config.Config) *redis.Client {
	log := logger.Module("Redis")
	if cfg.RedisAddr == "" {
		log.Info("REDIS_ADDR not set, using in-memory rate limiting")
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           0,
		PoolSize:     50,
		MinIdleConns: 5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
		IdleTimeout:  5 * time.Minute,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		// 启动后Redis恢复时自动生效，期间请求走内存限流
		log.Warnf("redis %s unreachable: %v", cfg.RedisAddr, err)
	} else {
		log.Infof("connected to redis %s", cfg.RedisAddr)
	}
	return rdb
}

func main() {
	envErr := config.LoadDotEnv(".env")

	cfg, err := config.Load()
	if err != nil {
		_ = logger.Init(logger.DeriveEnvironment(), "")
		logger.Module("Main").Fatalf("load config: %v", err)
	}
	if err := logger.Init(cfg.Env, cfg.LogFile); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Module("Main")
	if envErr != nil {
		log.Warnf("load .env: %v", envErr)
	}

	if cfg.Env != "dev" && cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.Infof("starting whoisd, version: %s, env: %s", os.Getenv("APP_VERSION"), cfg.Env)

	serviceContainer := services.NewServiceContainer(cfg, newRedisClient(cfg))
	serviceContainer.InitializeHealthChecker()

	srv := &http.Server{
		Addr:           cfg.Addr(),
		Handler:        routes.SetupRouter(serviceContainer),
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   90 * time.Second, // 批量查询可能持续较久
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info("shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Errorf("forced shutdown: %v", err)
		}
		serviceContainer.Shutdown()
		log.Info("server stopped")
	}()

	log.Infof("listening on %s", cfg.Addr())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server failed: %v", err)
	}
	<-done
}
