/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2026-10-19
 * @Description: WHOIS客户端 - 查询类型分发
 */
package whois

import (
	"context"
	"net/http"
	"time"

	"whoisd/types"
)

// Client WHOIS客户端，可并发使用
type Client struct {
	cache      *ServerCache
	dial       DialContextFunc
	discoverer Discoverer
	httpClient *http.Client
	tldListURL string
}

// NewClient 创建默认配置的客户端
func NewClient() *Client {
	return &Client{
		cache:      NewServerCache(),
		discoverer: NewDNSDiscoverer("", 5*time.Second),
		httpClient: &http.Client{Timeout: types.DefaultTimeout},
		tldListURL: DefaultTLDListURL,
	}
}

// SetDialer 替换拨号函数，nil 恢复默认的 net.Dialer
func (c *Client) SetDialer(dial DialContextFunc) *Client {
	c.dial = dial
	return c
}

// SetDiscoverer 替换DNS发现实现
func (c *Client) SetDiscoverer(d Discoverer) *Client {
	c.discoverer = d
	return c
}

// SetCache 注入共享的TLD服务器缓存
func (c *Client) SetCache(cache *ServerCache) *Client {
	c.cache = cache
	return c
}

func (c *Client) SetHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

func (c *Client) SetTLDListURL(url string) *Client {
	c.tldListURL = url
	return c
}

func (c *Client) Cache() *ServerCache {
	return c.cache
}

// Lookup 自动识别查询类型并分发到对应的解析流程
func (c *Client) Lookup(ctx context.Context, query string, opts types.Options) (*types.LookupResult, error) {
	kind, err := Classify(query)
	if err != nil {
		return nil, err
	}

	out := &types.LookupResult{Query: query, Kind: kind}
	switch kind {
	case types.KindTLD:
		out.Record, err = c.TLD(ctx, query, opts)
	case types.KindDomain:
		var chain types.Chain
		chain, err = c.DomainChain(ctx, query, opts)
		out.Result = chain.Result()
		out.Chain = chain.Servers()
	default:
		out.Record, err = c.IPOrASN(ctx, query, opts)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FirstResult 返回引用链中第一台服务器（注册局）的记录
func FirstResult(chain types.Chain) types.Record {
	return chain.First()
}
