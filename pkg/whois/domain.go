/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2026-10-19
 * @Description: 域名解析 - 注册局 -> 注册商引用链
 */
package whois

import (
	"context"
	"strings"

	"whoisd/pkg/logger"
	"whoisd/types"
)

// Domain 返回 服务器 -> 记录 的映射
func (c *Client) Domain(ctx context.Context, domain string, opts types.Options) (types.Result, error) {
	chain, err := c.DomainChain(ctx, domain, opts)
	if err != nil {
		return nil, err
	}
	return chain.Result(), nil
}

// DomainChain 返回按查询顺序排列的引用链
// 注册局服务器确定之后不再返回错误，单跳失败记录在该跳的 error 字段中
func (c *Client) DomainChain(ctx context.Context, domain string, opts types.Options) (types.Chain, error) {
	opts = opts.Normalize()

	ace := strings.TrimSuffix(ToASCII(domain), ".")
	idx := strings.LastIndex(ace, ".")
	if idx <= 0 || idx == len(ace)-1 {
		return nil, newQueryError(ErrUnrecognizedQuery, domain, "Invalid domain %q", domain)
	}
	tld := ace[idx+1:]

	host, port := opts.Host, opts.Port
	if host == "" {
		server, err := c.registryServer(ctx, tld, domain, opts)
		if err != nil {
			return nil, err
		}
		host, port = splitHostPort(server, types.DefaultPort)
	}

	return c.walkDomain(ctx, ace, host, port, opts), nil
}

func (c *Client) walkDomain(ctx context.Context, ace, host string, port int, opts types.Options) types.Chain {
	log := logger.FromContext(ctx, "Whois")

	var chain types.Chain
	visited := make(map[string]bool)

	for remaining := opts.Follow; remaining > 0 && host != ""; remaining-- {
		host = strings.ToLower(host)
		visited[host] = true

		raw, err := c.Query(ctx, host, port, domainQuery(host, ace), opts.Timeout, opts.Proxy)
		if err != nil {
			log.Warnf("domain %s: hop %s failed: %v", ace, host, err)
			chain = append(chain, types.Hop{
				Server: host,
				Record: types.Record{types.ErrorField: err.Error()},
			})
			break
		}

		rec := ParseDomain(raw, opts.RedactPrivacy())
		if opts.Raw {
			rec[types.RawField] = raw
		}
		chain = append(chain, types.Hop{Server: host, Record: rec})

		next, nextPort := nextDomainHop(rec)
		if next == "" {
			break
		}
		if visited[next] {
			log.Debugf("domain %s: referral to %s already visited, stopping", ace, next)
			break
		}
		host, port = next, nextPort
	}

	return chain
}

// nextDomainHop 引用字段 -> 去协议 -> 纠正拼写
func nextDomainHop(rec types.Record) (string, int) {
	ref := referralFromRecord(rec)
	if ref == "" {
		return "", 0
	}
	host, port := splitHostPort(stripScheme(ref), types.DefaultPort)
	return correctServer(host), port
}
