/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2025-04-29 12:15:00
 * @Description: 健康检查服务
 */
package services

import (
	"context"
	"sync"
	"time"

	"whoisd/pkg/logger"
	"whoisd/pkg/whois"
	"whoisd/types"
)

const defaultProbeTimeout = 5 * time.Second

// HealthChecker 定期检查IANA WHOIS与DNS解析器是否可用
type HealthChecker struct {
	Client     *whois.Client
	DNSChecker *DNSChecker
	Breakers   *ServerBreakers
	Interval   time.Duration
	ProbeTLD   string
	Proxy      *types.ProxyOptions

	stopChan         chan struct{}
	stopOnce         sync.Once
	lastCheckTime    time.Time
	lastCheckResults map[string]interface{}
	mutex            sync.RWMutex
}

// NewHealthChecker 创建一个新的健康检查器实例
func NewHealthChecker(client *whois.Client, dnsChecker *DNSChecker, breakers *ServerBreakers, interval time.Duration) *HealthChecker {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &HealthChecker{
		Client:           client,
		DNSChecker:       dnsChecker,
		Breakers:         breakers,
		Interval:         interval,
		ProbeTLD:         "com",
		stopChan:         make(chan struct{}),
		lastCheckResults: make(map[string]interface{}),
	}
}

// Start 开始定期健康检查
func (hc *HealthChecker) Start() {
	logger.Module("Health").Infof("starting periodic health check, interval %v", hc.Interval)

	go func() {
		ticker := time.NewTicker(hc.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				hc.RunHealthCheck(context.Background())
			case <-hc.stopChan:
				logger.Module("Health").Info("health check stopped")
				return
			}
		}
	}()
}

// Stop 停止定期健康检查，可重复调用
func (hc *HealthChecker) Stop() {
	hc.stopOnce.Do(func() {
		close(hc.stopChan)
	})
}

// ForceRefresh 立即执行一次健康检查
func (hc *HealthChecker) ForceRefresh() {
	hc.RunHealthCheck(context.Background())
}

// RunHealthCheck 执行一次完整的健康检查
func (hc *HealthChecker) RunHealthCheck(ctx context.Context) {
	log := logger.Module("Health")
	start := time.Now()
	results := make(map[string]interface{})

	if hc.Client != nil {
		results["whois"] = hc.checkWhois(ctx)
	}

	if hc.DNSChecker != nil {
		servers := hc.DNSChecker.CheckAllServers(ctx)
		available := 0
		for _, r := range servers {
			if m, ok := r.(map[string]interface{}); ok && m["status"] == "up" {
				available++
			}
		}

		status := "up"
		switch {
		case len(servers) == 0 || available == 0:
			status = "down"
		case available < len(servers):
			status = "degraded"
		}
		results["dns"] = map[string]interface{}{
			"status":    status,
			"total":     len(servers),
			"available": available,
			"servers":   servers,
		}
	}

	if hc.Breakers != nil {
		status := "up"
		if hc.Breakers.OpenCount() > 0 {
			status = "degraded"
		}
		results["breakers"] = map[string]interface{}{
			"status":  status,
			"open":    hc.Breakers.OpenCount(),
			"servers": hc.Breakers.Status(),
		}
	}

	hc.mutex.Lock()
	hc.lastCheckResults = results
	hc.lastCheckTime = time.Now()
	hc.mutex.Unlock()

	log.Infof("health check completed in %v", time.Since(start).Round(time.Millisecond))
}

// checkWhois 通过IANA解析一个TLD，验证WHOIS链路的第一跳
func (hc *HealthChecker) checkWhois(ctx context.Context) map[string]interface{} {
	opts := types.DefaultOptions()
	opts.Timeout = defaultProbeTimeout
	opts.Proxy = hc.Proxy

	start := time.Now()
	rec, err := hc.Client.TLD(ctx, hc.ProbeTLD, opts)
	result := map[string]interface{}{
		"server":       whois.IANAServer,
		"probe":        hc.ProbeTLD,
		"responseTime": time.Since(start).Milliseconds(),
	}

	switch {
	case err != nil:
		result["status"] = "down"
		result["message"] = err.Error()
	case rec.Get("whois") == "":
		result["status"] = "degraded"
		result["message"] = "IANA returned no whois server"
	default:
		result["status"] = "up"
		result["registry"] = rec.Get("whois")
	}
	return result
}

// GetHealthStatus 返回最近一次检查结果的副本
func (hc *HealthChecker) GetHealthStatus() map[string]interface{} {
	hc.mutex.RLock()
	defer hc.mutex.RUnlock()

	out := make(map[string]interface{}, len(hc.lastCheckResults))
	for k, v := range hc.lastCheckResults {
		out[k] = v
	}
	return out
}

// LastCheckTime 最近一次检查时间
func (hc *HealthChecker) LastCheckTime() time.Time {
	hc.mutex.RLock()
	defer hc.mutex.RUnlock()
	return hc.lastCheckTime
}
