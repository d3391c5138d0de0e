/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2025-04-09 12:15:00
 * @Description: DNS检查服务 - 探测WHOIS服务器发现所用的解析器
 */
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"whoisd/pkg/logger"

	"github.com/miekg/dns"
	"golang.org/x/sync/errgroup"
)

// DNSChecker 实现DNS服务的健康检查
type DNSChecker struct {
	client    *dns.Client
	servers   []string
	testName  string
	testType  uint16
	mu        sync.RWMutex
	lastCheck time.Time
}

// NewDNSChecker 创建一个新的DNS检查器
// 默认查询 com.whois-servers.net 的CNAME，与TLD发现走同一条路径
func NewDNSChecker(servers []string, timeout time.Duration) *DNSChecker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &DNSChecker{
		client:   &dns.Client{Timeout: timeout},
		servers:  append([]string(nil), servers...),
		testName: "com.whois-servers.net.",
		testType: dns.TypeCNAME,
	}
}

// SetProbe 修改探测的名称和类型
func (dc *DNSChecker) SetProbe(name string, qtype uint16) *DNSChecker {
	dc.testName = dns.Fqdn(name)
	dc.testType = qtype
	return dc
}

// GetLastCheckTime 返回上次检查时间
func (dc *DNSChecker) GetLastCheckTime() time.Time {
	dc.mu.RLock()
	defer dc.mu.RUnlock()
	return dc.lastCheck
}

// CheckAllServers 并发探测全部解析器
func (dc *DNSChecker) CheckAllServers(ctx context.Context) map[string]interface{} {
	log := logger.Module("Health")
	results := make(map[string]interface{}, len(dc.servers))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for _, server := range dc.servers {
		server := server
		g.Go(func() error {
			res := dc.checkServer(ctx, server)
			mu.Lock()
			results[server] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	dc.mu.Lock()
	dc.lastCheck = time.Now()
	dc.mu.Unlock()

	log.Debugf("DNS check finished for %d resolvers", len(dc.servers))
	return results
}

func (dc *DNSChecker) checkServer(ctx context.Context, server string) map[string]interface{} {
	m := new(dns.Msg)
	m.SetQuestion(dc.testName, dc.testType)
	m.RecursionDesired = true

	start := time.Now()
	resp, _, err := dc.client.ExchangeContext(ctx, m, server)
	result := map[string]interface{}{
		"status":       "down",
		"responseTime": time.Since(start).Milliseconds(),
		"timestamp":    start.UTC().Format(time.RFC3339),
		"query":        fmt.Sprintf("%s %s", dc.testName, dns.TypeToString[dc.testType]),
	}

	switch {
	case err != nil:
		result["message"] = fmt.Sprintf("DNS query failed: %v", err)
	case resp.Rcode != dns.RcodeSuccess:
		result["message"] = fmt.Sprintf("DNS query returned %s", dns.RcodeToString[resp.Rcode])
	default:
		result["status"] = "up"
		result["answers"] = len(resp.Answer)
	}
	return result
}
