/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2025-01-18 22:34:01
 * @Description: WHOIS查询类型定义
 */
package types

import (
	"time"
)

// QueryKind 查询类型
type QueryKind string

const (
	KindDomain QueryKind = "domain"
	KindTLD    QueryKind = "tld"
	KindIP     QueryKind = "ip"
	KindASN    QueryKind = "asn"
)

// 保留字段
const (
	RawField   = "__raw"
	ErrorField = "error"
	TextField  = "text"
)

// Record 单个WHOIS服务器返回的解析结果
// 值为 string、[]string（重复字段）或嵌套的 Record
type Record map[string]interface{}

// Add 追加字段，重复的键会变成有序的字符串序列
func (r Record) Add(key, value string) {
	existing, ok := r[key]
	if !ok {
		r[key] = value
		return
	}
	switch v := existing.(type) {
	case string:
		r[key] = []string{v, value}
	case []string:
		r[key] = append(v, value)
	default:
		r[key] = value
	}
}

// Get 返回字段的第一个值
func (r Record) Get(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

// Values 返回字段的全部值
func (r Record) Values(key string) []string {
	switch v := r[key].(type) {
	case string:
		return []string{v}
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	}
	return nil
}

func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Hop 引用链中的一跳
type Hop struct {
	Server string `json:"server"`
	Record Record `json:"record"`
}

// Chain 有序的引用链，同一个服务器不会出现两次
type Chain []Hop

// Result 服务器主机名 -> 该服务器返回的记录
type Result map[string]Record

// Result 将引用链转换为按服务器索引的结果
func (c Chain) Result() Result {
	out := make(Result, len(c))
	for _, hop := range c {
		out[hop.Server] = hop.Record
	}
	return out
}

// Servers 按查询顺序返回服务器列表
func (c Chain) Servers() []string {
	out := make([]string, 0, len(c))
	for _, hop := range c {
		out = append(out, hop.Server)
	}
	return out
}

// First 返回第一跳（注册局）的记录
func (c Chain) First() Record {
	if len(c) == 0 {
		return nil
	}
	return c[0].Record
}

// ProxyOptions SOCKS5代理配置
type ProxyOptions struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// Options 单次查询的配置
type Options struct {
	Host          string        `json:"host,omitempty"`
	Port          int           `json:"port"`
	Timeout       time.Duration `json:"timeout"`
	Follow        int           `json:"follow"`
	Raw           bool          `json:"raw"`
	IgnorePrivacy *bool         `json:"ignorePrivacy,omitempty"` // nil 表示默认脱敏
	Proxy         *ProxyOptions `json:"proxy,omitempty"`
}

const (
	DefaultPort    = 43
	DefaultTimeout = 15000 * time.Millisecond
	DefaultFollow  = 2
)

// DefaultOptions 默认查询配置
func DefaultOptions() Options {
	return Options{
		Port:          DefaultPort,
		Timeout:       DefaultTimeout,
		Follow:        DefaultFollow,
		IgnorePrivacy: Bool(true),
	}
}

// Bool 返回布尔值的指针
func Bool(v bool) *bool {
	return &v
}

// RedactPrivacy 是否清空联系人字段，未设置时为 true
func (o Options) RedactPrivacy() bool {
	return o.IgnorePrivacy == nil || *o.IgnorePrivacy
}

// Normalize 填充零值字段
func (o Options) Normalize() Options {
	if o.Port <= 0 {
		o.Port = DefaultPort
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Follow <= 0 {
		o.Follow = DefaultFollow
	}
	if o.IgnorePrivacy == nil {
		o.IgnorePrivacy = Bool(true)
	}
	return o
}

// LookupResult 自动识别查询的结果
// 域名查询填充 Result 与 Chain，其余类型填充 Record
type LookupResult struct {
	Query  string    `json:"query"`
	Kind   QueryKind `json:"kind"`
	Record Record    `json:"record,omitempty"`
	Result Result    `json:"result,omitempty"`
	Chain  []string  `json:"chain,omitempty"`
}
