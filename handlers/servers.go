/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2025-03-31 02:25:00
 * @Description: WHOIS服务器发现处理器 - TLD缓存与单个TLD的服务器解析
 */
package handlers

import (
	"net/http"
	"sort"
	"strings"

	"whoisd/utils"

	"github.com/gin-gonic/gin"
)

// ServerEntry TLD -> 注册局WHOIS服务器
type ServerEntry struct {
	TLD    string `json:"tld"`
	Server string `json:"server"`
	Cached bool   `json:"cached"`
}

// ListServers 返回当前TLD缓存内容，按TLD排序
func ListServers(c *gin.Context) {
	svc, ok := getLookupService(c)
	if !ok {
		return
	}

	snapshot := svc.Client().Cache().Snapshot()
	entries := make([]ServerEntry, 0, len(snapshot))
	for tld, server := range snapshot {
		entries = append(entries, ServerEntry{TLD: tld, Server: server, Cached: true})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].TLD < entries[j].TLD })

	utils.SuccessResponse(c, gin.H{"servers": entries, "count": len(entries)}, nil)
}

// ResolveServer 返回TLD的注册局WHOIS服务器，未缓存时经IANA或DNS发现后写入缓存
func ResolveServer(c *gin.Context) {
	svc, opts, ok := prepare(c)
	if !ok {
		return
	}
	tld := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Param("tld")), "."))
	if tld == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_QUERY", "Missing TLD")
		return
	}

	client := svc.Client()
	_, cached := client.Cache().Get(tld)

	server, err := client.ServerFor(c.Request.Context(), tld, opts)
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.SuccessResponse(c, ServerEntry{TLD: tld, Server: server, Cached: cached}, nil)
}
