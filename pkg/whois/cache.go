/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2026-10-19
 * @Description: TLD -> WHOIS服务器缓存
 */
package whois

import (
	"strings"
	"sync"
)

// ServerCache 进程内TLD服务器缓存，只追加不淘汰
// 同一TLD总是解析到同一服务器，重复写入是幂等的
type ServerCache struct {
	mu      sync.RWMutex
	servers map[string]string
}

// NewServerCache 创建带有常用TLD服务器的缓存
func NewServerCache() *ServerCache {
	c := NewEmptyServerCache()
	for tld, server := range seedTLDServers {
		c.servers[tld] = server
	}
	return c
}

// NewEmptyServerCache 创建空缓存
func NewEmptyServerCache() *ServerCache {
	return &ServerCache{servers: make(map[string]string)}
}

func (c *ServerCache) Get(tld string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	server, ok := c.servers[strings.ToLower(tld)]
	return server, ok
}

func (c *ServerCache) Set(tld, server string) {
	if tld == "" || server == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.servers[strings.ToLower(tld)] = server
}

func (c *ServerCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.servers)
}

// Snapshot 返回缓存内容的副本
func (c *ServerCache) Snapshot() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.servers))
	for k, v := range c.servers {
		out[k] = v
	}
	return out
}
