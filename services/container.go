/*
 * @Author: AsisYu
 * @Date: 2025-04-24
 * @Description: 服务容器，用于统一管理所有服务组件
 */
package services

import (
	"time"

	"whoisd/config"
	"whoisd/pkg/logger"
	"whoisd/pkg/whois"

	"github.com/go-redis/redis/v8"
)

// ServiceContainer 服务容器，管理所有服务组件
type ServiceContainer struct {
	Config        *config.Config
	RedisClient   *redis.Client
	WorkerPool    *WorkerPool
	WhoisClient   *whois.Client
	Discoverer    *whois.DNSDiscoverer
	Breakers      *ServerBreakers
	Lookup        *LookupService
	DNSChecker    *DNSChecker
	HealthChecker *HealthChecker
	Limiter       *RateLimiter
}

// NewServiceContainer 创建新的服务容器，redisClient 可以为 nil
func NewServiceContainer(cfg *config.Config, redisClient *redis.Client) *ServiceContainer {
	log := logger.Module("Services")
	container := &ServiceContainer{
		Config:      cfg,
		RedisClient: redisClient,
	}

	log.Infof("initializing worker pool, size: %d", cfg.WorkerPoolSize)
	container.WorkerPool = NewWorkerPool(cfg.WorkerPoolSize)
	container.WorkerPool.Start()

	container.Breakers = NewServerBreakers(DefaultBreakerThreshold, DefaultBreakerReset)
	container.Discoverer = whois.NewDNSDiscoverer(cfg.DNSServer, 5*time.Second)
	container.WhoisClient = whois.NewClient().
		SetDiscoverer(container.Discoverer).
		SetDialer(container.Breakers.WrapDialer(nil))
	log.Infof("DNS resolvers for WHOIS discovery: %v", container.Discoverer.Servers())

	container.Lookup = NewLookupService(container.WhoisClient, container.WorkerPool, cfg.WhoisOptions())
	container.DNSChecker = NewDNSChecker(container.Discoverer.Servers(), 5*time.Second)

	return container
}

// InitializeHealthChecker 初始化健康检查器
func (sc *ServiceContainer) InitializeHealthChecker() {
	sc.HealthChecker = NewHealthChecker(sc.WhoisClient, sc.DNSChecker, sc.Breakers, sc.Config.HealthCheckInterval)
	sc.HealthChecker.Proxy = sc.Config.Proxy
	sc.HealthChecker.Start()
	// 服务启动时立即执行一次健康检查
	go sc.HealthChecker.ForceRefresh()
}

// InitializeLimiter 初始化限流器
func (sc *ServiceContainer) InitializeLimiter(key string, rate int, period time.Duration) {
	sc.Limiter = NewRateLimiter(sc.RedisClient, key, rate, period)
}

// Shutdown 关闭所有服务
func (sc *ServiceContainer) Shutdown() {
	log := logger.Module("Services")

	if sc.HealthChecker != nil {
		log.Info("stopping health checker...")
		sc.HealthChecker.Stop()
	}

	if sc.WorkerPool != nil {
		log.Info("stopping worker pool...")
		sc.WorkerPool.Stop()
	}

	if sc.RedisClient != nil {
		log.Info("closing redis client...")
		if err := sc.RedisClient.Close(); err != nil {
			log.Warnf("close redis: %v", err)
		}
	}

	log.Info("all services stopped")
}
