/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2025-04-29 12:15:00
 * @Description: WHOIS查询服务
 */
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"whoisd/pkg/logger"
	"whoisd/pkg/whois"
	"whoisd/types"
)

// MaxBatchSize 单次批量查询的最大条数
const MaxBatchSize = 50

// BatchItem 批量查询中单条查询的结果
type BatchItem struct {
	Query  string              `json:"query"`
	Kind   types.QueryKind     `json:"kind,omitempty"`
	Result *types.LookupResult `json:"result,omitempty"`
	Error  string              `json:"error,omitempty"`
	Code   string              `json:"code,omitempty"`
}

// LookupService 封装WHOIS客户端，合并调用方参数与服务默认参数
type LookupService struct {
	client   *whois.Client
	pool     *WorkerPool
	defaults types.Options
}

func NewLookupService(client *whois.Client, pool *WorkerPool, defaults types.Options) *LookupService {
	return &LookupService{
		client:   client,
		pool:     pool,
		defaults: defaults.Normalize(),
	}
}

// Defaults 服务级默认查询参数
func (s *LookupService) Defaults() types.Options {
	return s.defaults
}

func (s *LookupService) Client() *whois.Client {
	return s.client
}

// Lookup 自动识别查询类型
func (s *LookupService) Lookup(ctx context.Context, query string, opts types.Options) (*types.LookupResult, error) {
	logger.FromContext(ctx, "Lookup").Debugf("lookup %q", query)
	return s.client.Lookup(ctx, strings.TrimSpace(query), opts)
}

// LookupKind 按指定类型查询，类型不符时返回 ErrUnrecognizedQuery
// ip 与 asn 共用同一解析流程，但仍要求查询本身属于所请求的类型
func (s *LookupService) LookupKind(ctx context.Context, kind types.QueryKind, query string, opts types.Options) (*types.LookupResult, error) {
	query = strings.TrimSpace(query)
	got, err := whois.Classify(query)
	if err != nil {
		return nil, err
	}
	if got != kind {
		return nil, &whois.QueryError{
			Kind:  whois.ErrUnrecognizedQuery,
			Query: query,
			Msg:   fmt.Sprintf("Query %q is a %s, not a %s", query, got, kind),
		}
	}
	return s.client.Lookup(ctx, query, opts)
}

// Raw 直接向指定服务器发送查询，返回原始文本
func (s *LookupService) Raw(ctx context.Context, host string, port int, query string, opts types.Options) (string, error) {
	opts = opts.Normalize()
	if port <= 0 {
		port = opts.Port
	}
	return s.client.Query(ctx, strings.ToLower(strings.TrimSpace(host)), port, query, opts.Timeout, opts.Proxy)
}

// Batch 通过工作池并发执行多条查询，结果顺序与输入一致
// 单条失败只记录在对应条目中
func (s *LookupService) Batch(ctx context.Context, queries []string, opts types.Options) []BatchItem {
	items := make([]BatchItem, len(queries))
	var wg sync.WaitGroup

	for i, q := range queries {
		i, q := i, strings.TrimSpace(q)
		items[i].Query = q

		task := func() {
			defer wg.Done()
			res, err := s.Lookup(ctx, q, opts)
			if err != nil {
				items[i].Error = err.Error()
				items[i].Code = ErrorCode(err)
				return
			}
			items[i].Kind = res.Kind
			items[i].Result = res
		}

		wg.Add(1)
		if s.pool == nil {
			go task()
			continue
		}
		if !s.pool.SubmitWithContext(ctx, task) {
			wg.Done()
			items[i].Error = "worker pool unavailable"
			if err := ctx.Err(); err != nil {
				items[i].Error = err.Error()
			}
			items[i].Code = "SERVICE_UNAVAILABLE"
		}
	}

	wg.Wait()
	return items
}

// TLDs IANA维护的全部TLD
func (s *LookupService) TLDs(ctx context.Context) ([]string, error) {
	return s.client.AllTLDs(ctx)
}

// ErrorCode 查询错误 -> API错误码
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, whois.ErrUnrecognizedQuery):
		return "INVALID_QUERY"
	case errors.Is(err, whois.ErrTldNotFound):
		return "TLD_NOT_FOUND"
	case errors.Is(err, whois.ErrTldUnsupported):
		return "TLD_UNSUPPORTED"
	case errors.Is(err, whois.ErrNoWhoisServer):
		return "NO_WHOIS_SERVER"
	case errors.Is(err, whois.ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, whois.ErrConnection):
		return "CONNECTION_ERROR"
	case errors.Is(err, context.Canceled):
		return "CANCELED"
	default:
		return "INTERNAL_ERROR"
	}
}
