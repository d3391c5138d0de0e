/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2026-10-19
 * @Description: TLD解析 - 先查IANA，无结果时通过DNS发现
 */
package whois

import (
	"context"
	"strings"

	"whoisd/pkg/logger"
	"whoisd/types"

	"golang.org/x/sync/errgroup"
)

const (
	whoisServersZone = ".whois-servers.net"
	nicnameSRVPrefix = "_nicname._tcp."
)

// TLD 查询IANA获取TLD的权威WHOIS服务器
// 返回的记录至少包含 whois 或 domain 字段，domain 保留服务器返回的大写形式
func (c *Client) TLD(ctx context.Context, query string, opts types.Options) (types.Record, error) {
	opts = opts.Normalize()
	tld := normalizeTLD(query)

	host, port := IANAServer, types.DefaultPort
	if opts.Host != "" {
		host, port = opts.Host, opts.Port
	}

	raw, err := c.Query(ctx, host, port, tld, opts.Timeout, opts.Proxy)
	if err != nil {
		return nil, err
	}

	rec := ParseSimple(raw)
	if rec.Get("whois") == "" {
		if refer := rec.Get("refer"); refer != "" {
			rec["whois"] = refer
		}
	}
	if rec.Get("whois") == "" {
		if server := c.discoverTLDServer(ctx, tld); server != "" {
			rec["whois"] = server
		}
	}

	if rec.Get("whois") == "" && rec.Get("domain") == "" {
		return nil, newQueryError(ErrTldNotFound, query, "TLD %q not found", query)
	}

	// 只缓存IANA给出的结果，自定义 host 的应答不进入共享缓存
	if server := rec.Get("whois"); server != "" && c.cache != nil && opts.Host == "" {
		if _, ok := c.cache.Get(tld); !ok {
			c.cache.Set(tld, server)
		}
	}
	if opts.Raw {
		rec[types.RawField] = raw
	}
	return rec, nil
}

// discoverTLDServer 并发查询 CNAME 与 SRV，任一失败不影响另一个
// 两者都有结果时优先使用注册局主动发布的 SRV
func (c *Client) discoverTLDServer(ctx context.Context, tld string) string {
	if c.discoverer == nil {
		return ""
	}
	log := logger.FromContext(ctx, "Whois")

	var cname, srv string
	var g errgroup.Group

	g.Go(func() error {
		name := tld + whoisServersZone
		host, err := c.discoverer.LookupCNAME(ctx, name)
		if err != nil || host == "" {
			DNSFallbackCounter.WithLabelValues("cname", "miss").Inc()
			log.Debugf("CNAME lookup for %s failed: %v", name, err)
			return nil
		}
		DNSFallbackCounter.WithLabelValues("cname", "hit").Inc()
		cname = host
		return nil
	})
	g.Go(func() error {
		name := nicnameSRVPrefix + tld
		host, _, err := c.discoverer.LookupSRV(ctx, name)
		if err != nil || host == "" {
			DNSFallbackCounter.WithLabelValues("srv", "miss").Inc()
			log.Debugf("SRV lookup for %s failed: %v", name, err)
			return nil
		}
		DNSFallbackCounter.WithLabelValues("srv", "hit").Inc()
		srv = host
		return nil
	})
	_ = g.Wait()

	if srv != "" {
		return srv
	}
	return cname
}

// registryServer 缓存 -> IANA 解析注册局服务器，成功后写入缓存
func (c *Client) registryServer(ctx context.Context, tld, domain string, opts types.Options) (string, error) {
	if c.cache != nil {
		if server, ok := c.cache.Get(tld); ok {
			TLDCacheHitsCounter.Inc()
			return server, nil
		}
	}
	TLDCacheMissesCounter.Inc()

	tldOpts := opts
	tldOpts.Host = ""
	tldOpts.Raw = false
	rec, err := c.TLD(ctx, tld, tldOpts)
	if err != nil {
		return "", err
	}

	server := rec.Get("whois")
	if server == "" {
		return "", newQueryError(ErrTldUnsupported, domain, "TLD for %q not supported", domain)
	}
	if c.cache != nil {
		c.cache.Set(tld, server)
	}
	return server, nil
}

// ServerFor 返回TLD的注册局WHOIS服务器，与域名查询共用缓存与解析流程
func (c *Client) ServerFor(ctx context.Context, tld string, opts types.Options) (string, error) {
	tld = normalizeTLD(strings.ToLower(tld))
	if tld == "" || !IsTLD(tld) {
		return "", newQueryError(ErrUnrecognizedQuery, tld, "Unrecognized TLD %q", tld)
	}
	return c.registryServer(ctx, tld, tld, opts.Normalize())
}
