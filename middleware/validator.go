/*
 * @Author: AsisYu
 * @Date: 2025-04-25
 * @Description: 查询参数与JSON请求验证器
 */
package middleware

import (
	"fmt"
	"net/http"

	"whoisd/pkg/logger"
	"whoisd/pkg/whois"
	"whoisd/types"
	"whoisd/utils"

	"github.com/gin-gonic/gin"
)

const (
	// QueryKey 清理后的查询字符串
	QueryKey = "query"
	// QueryKindKey 查询类型 types.QueryKind
	QueryKindKey = "queryKind"
	// BodyKey 已绑定的JSON请求体
	BodyKey = "requestBody"

	maxQueryLen = 255
)

// QueryValidator 校验路径参数中的查询，并将清理结果与识别出的类型放入上下文
// kinds 非空时只接受其中的类型
func QueryValidator(param string, kinds ...types.QueryKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := utils.SanitizeQuery(c.Param(param))
		if q == "" {
			utils.AbortWithError(c, http.StatusBadRequest, "INVALID_QUERY", "Missing query")
			return
		}
		if len(q) > maxQueryLen {
			utils.AbortWithError(c, http.StatusBadRequest, "INVALID_QUERY",
				fmt.Sprintf("Query exceeds %d characters", maxQueryLen))
			return
		}

		kind, err := whois.Classify(q)
		if err != nil {
			utils.AbortWithError(c, http.StatusBadRequest, "INVALID_QUERY", err.Error())
			return
		}
		if len(kinds) > 0 && !containsKind(kinds, kind) {
			utils.AbortWithError(c, http.StatusBadRequest, "INVALID_QUERY",
				fmt.Sprintf("Query %q is a %s, not a %s", q, kind, kinds[0]))
			return
		}

		c.Set(QueryKey, q)
		c.Set(QueryKindKey, kind)
		c.Next()
	}
}

func containsKind(kinds []types.QueryKind, kind types.QueryKind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// JSONBodyValidator 将请求体绑定到 newModel 返回的新对象并放入上下文
// 只校验 POST/PUT/PATCH 请求
func JSONBodyValidator(newModel func() interface{}) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}

		model := newModel()
		if err := c.ShouldBindJSON(model); err != nil {
			logger.WithRequest(c, "Validator").Debugf("JSON validation failed: %v", err)
			utils.AbortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format: "+err.Error())
			return
		}

		c.Set(BodyKey, model)
		c.Next()
	}
}
