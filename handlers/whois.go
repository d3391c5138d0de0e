/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2025-01-18 00:57:29
 * @Description: Whois查询处理程序
 */
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"whoisd/middleware"
	"whoisd/pkg/logger"
	"whoisd/services"
	"whoisd/types"
	"whoisd/utils"

	"github.com/gin-gonic/gin"
)

const (
	maxTimeout = 60 * time.Second
	maxFollow  = 10
)

// BatchRequest 批量查询请求体
type BatchRequest struct {
	Queries []string `json:"queries" binding:"required,min=1"`
}

// NewBatchRequest 供 JSONBodyValidator 使用
func NewBatchRequest() interface{} {
	return &BatchRequest{}
}

// BatchResponse 批量查询结果
type BatchResponse struct {
	Items  []services.BatchItem `json:"items"`
	Total  int                  `json:"total"`
	Failed int                  `json:"failed"`
}

// getLookupService 从上下文获取查询服务，未注入时返回503
func getLookupService(c *gin.Context) (*services.LookupService, bool) {
	if v, ok := c.Get(middleware.LookupServiceKey); ok {
		if svc, ok := v.(*services.LookupService); ok {
			return svc, true
		}
	}
	utils.ErrorResponse(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "WHOIS service not initialized")
	return nil, false
}

// errOverrideForbidden 匿名请求不能指定上游服务器
var errOverrideForbidden = errors.New("host and port overrides require an authenticated request")

// canOverrideServer 只有通过令牌校验的请求可以让服务连接任意主机和端口
func canOverrideServer(c *gin.Context) bool {
	return c.GetBool(middleware.AuthenticatedKey)
}

// parseOptions 在服务默认参数上覆盖请求参数
// host port timeout(毫秒) follow raw ignorePrivacy
func parseOptions(c *gin.Context, defaults types.Options) (types.Options, error) {
	opts := defaults

	if (c.Query("host") != "" || c.Query("port") != "") && !canOverrideServer(c) {
		return opts, errOverrideForbidden
	}

	if host := strings.TrimSpace(c.Query("host")); host != "" {
		opts.Host = strings.ToLower(host)
	}
	if v := c.Query("port"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return opts, fmt.Errorf("invalid port %q", v)
		}
		opts.Port = port
	}
	if v := c.Query("timeout"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			return opts, fmt.Errorf("invalid timeout %q", v)
		}
		opts.Timeout = time.Duration(ms) * time.Millisecond
		if opts.Timeout > maxTimeout {
			opts.Timeout = maxTimeout
		}
	}
	if v := c.Query("follow"); v != "" {
		follow, err := strconv.Atoi(v)
		if err != nil || follow <= 0 {
			return opts, fmt.Errorf("invalid follow %q", v)
		}
		if follow > maxFollow {
			follow = maxFollow
		}
		opts.Follow = follow
	}
	if v := c.Query("raw"); v != "" {
		raw, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("invalid raw %q", v)
		}
		opts.Raw = raw
	}
	if v := c.Query("ignorePrivacy"); v != "" {
		ignore, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("invalid ignorePrivacy %q", v)
		}
		opts.IgnorePrivacy = types.Bool(ignore)
	}
	return opts, nil
}

// prepare 取得服务与查询参数，失败时已写出响应
func prepare(c *gin.Context) (*services.LookupService, types.Options, bool) {
	svc, ok := getLookupService(c)
	if !ok {
		return nil, types.Options{}, false
	}
	opts, err := parseOptions(c, svc.Defaults())
	if errors.Is(err, errOverrideForbidden) {
		utils.ErrorResponse(c, http.StatusForbidden, "OVERRIDE_FORBIDDEN", err.Error())
		return nil, opts, false
	}
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_PARAMETER", err.Error())
		return nil, opts, false
	}
	return svc, opts, true
}

func respondLookup(c *gin.Context, res *types.LookupResult) {
	meta := utils.NewMeta(c)
	meta.Servers = res.Chain
	utils.SuccessResponse(c, res, meta)
}

// WhoisLookup 自动识别查询类型
func WhoisLookup(c *gin.Context) {
	svc, opts, ok := prepare(c)
	if !ok {
		return
	}
	query := c.GetString(middleware.QueryKey)

	res, err := svc.Lookup(c.Request.Context(), query, opts)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respondLookup(c, res)
}

// KindLookup 按指定类型查询，ip 与 asn 路由分别只接受自身类型
func KindLookup(kind types.QueryKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc, opts, ok := prepare(c)
		if !ok {
			return
		}
		query := c.GetString(middleware.QueryKey)

		res, err := svc.LookupKind(c.Request.Context(), kind, query, opts)
		if err != nil {
			_ = c.Error(err)
			return
		}
		respondLookup(c, res)
	}
}

// RawQuery 向指定服务器发送任意查询
// format=text 时直接返回服务器原文
func RawQuery(c *gin.Context) {
	if !canOverrideServer(c) {
		utils.ErrorResponse(c, http.StatusForbidden, "OVERRIDE_FORBIDDEN", errOverrideForbidden.Error())
		return
	}
	svc, opts, ok := prepare(c)
	if !ok {
		return
	}
	host := strings.TrimSpace(c.Param("host"))
	query := strings.TrimSpace(c.Param("query"))
	if host == "" || query == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_QUERY", "host and query are required")
		return
	}

	logger.WithRequest(c, "Whois").Debugf("raw query %q to %s:%d", utils.TruncateString(query, 64), host, opts.Port)
	raw, err := svc.Raw(c.Request.Context(), host, opts.Port, query, opts)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if c.Query("format") == "text" {
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(raw))
		return
	}
	utils.SuccessResponse(c, gin.H{
		"server": host,
		"port":   opts.Port,
		"query":  query,
		"raw":    raw,
	}, nil)
}

// BatchLookup 批量查询，单条失败不影响其他条目
func BatchLookup(c *gin.Context) {
	svc, opts, ok := prepare(c)
	if !ok {
		return
	}
	body, _ := c.Get(middleware.BodyKey)
	req, _ := body.(*BatchRequest)
	if req == nil || len(req.Queries) == 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", "queries is required")
		return
	}
	if len(req.Queries) > services.MaxBatchSize {
		utils.ErrorResponse(c, http.StatusBadRequest, "BATCH_TOO_LARGE",
			fmt.Sprintf("at most %d queries per batch", services.MaxBatchSize))
		return
	}

	queries := make([]string, len(req.Queries))
	for i, q := range req.Queries {
		queries[i] = utils.SanitizeQuery(q)
	}

	items := svc.Batch(c.Request.Context(), queries, opts)
	failed := 0
	for _, item := range items {
		if item.Error != "" {
			failed++
		}
	}
	utils.SuccessResponse(c, BatchResponse{Items: items, Total: len(items), Failed: failed}, nil)
}

// ListTLDs IANA发布的全部TLD
func ListTLDs(c *gin.Context) {
	svc, ok := getLookupService(c)
	if !ok {
		return
	}
	tlds, err := svc.TLDs(c.Request.Context())
	if err != nil {
		logger.WithRequest(c, "Whois").Warnf("fetch TLD list: %v", err)
		utils.ErrorResponse(c, http.StatusBadGateway, "UPSTREAM_ERROR", "Failed to fetch TLD list")
		return
	}
	utils.SuccessResponse(c, gin.H{"tlds": tlds, "count": len(tlds)}, nil)
}
