/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2026-10-19
 * @Description: 基于DNS的WHOIS服务器发现（CNAME / SRV）
 */
package whois

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/miekg/dns"
)

const (
	defaultResolvConf = "/etc/resolv.conf"
	fallbackResolver  = "1.1.1.1:53"
)

// Discoverer 通过DNS查找WHOIS服务器
type Discoverer interface {
	LookupCNAME(ctx context.Context, name string) (string, error)
	LookupSRV(ctx context.Context, name string) (string, uint16, error)
}

// DNSDiscoverer 使用 miekg/dns 直接向递归解析器查询
type DNSDiscoverer struct {
	client  *dns.Client
	servers []string
}

// NewDNSDiscoverer server 为空时使用 resolv.conf 中的解析器
func NewDNSDiscoverer(server string, timeout time.Duration) *DNSDiscoverer {
	var servers []string
	if server != "" {
		if _, _, err := net.SplitHostPort(server); err != nil {
			server = net.JoinHostPort(server, "53")
		}
		servers = append(servers, server)
	} else if cfg, err := dns.ClientConfigFromFile(defaultResolvConf); err == nil {
		for _, s := range cfg.Servers {
			servers = append(servers, net.JoinHostPort(s, cfg.Port))
		}
	}
	if len(servers) == 0 {
		servers = []string{fallbackResolver}
	}

	return &DNSDiscoverer{
		client:  &dns.Client{Timeout: timeout},
		servers: servers,
	}
}

// Servers 返回使用的解析器地址
func (d *DNSDiscoverer) Servers() []string {
	return append([]string(nil), d.servers...)
}

func (d *DNSDiscoverer) exchange(ctx context.Context, name string, qtype uint16) (*dns.Msg, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), qtype)
	m.RecursionDesired = true

	var lastErr error
	for _, server := range d.servers {
		resp, _, err := d.client.ExchangeContext(ctx, m, server)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.Rcode != dns.RcodeSuccess {
			return nil, fmt.Errorf("%s %s: %s", dns.TypeToString[qtype], name, dns.RcodeToString[resp.Rcode])
		}
		return resp, nil
	}
	return nil, fmt.Errorf("%s %s: %w", dns.TypeToString[qtype], name, lastErr)
}

func (d *DNSDiscoverer) LookupCNAME(ctx context.Context, name string) (string, error) {
	resp, err := d.exchange(ctx, name, dns.TypeCNAME)
	if err != nil {
		return "", err
	}
	for _, rr := range resp.Answer {
		if cname, ok := rr.(*dns.CNAME); ok {
			return strings.TrimSuffix(cname.Target, "."), nil
		}
	}
	return "", fmt.Errorf("no CNAME record for %s", name)
}

// LookupSRV 返回优先级最高（数值最小）、权重最大的目标
func (d *DNSDiscoverer) LookupSRV(ctx context.Context, name string) (string, uint16, error) {
	resp, err := d.exchange(ctx, name, dns.TypeSRV)
	if err != nil {
		return "", 0, err
	}
	var records []*dns.SRV
	for _, rr := range resp.Answer {
		if srv, ok := rr.(*dns.SRV); ok && srv.Target != "." {
			records = append(records, srv)
		}
	}
	if len(records) == 0 {
		return "", 0, fmt.Errorf("no SRV record for %s", name)
	}
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Priority != records[j].Priority {
			return records[i].Priority < records[j].Priority
		}
		return records[i].Weight > records[j].Weight
	})
	return strings.TrimSuffix(records[0].Target, "."), records[0].Port, nil
}
