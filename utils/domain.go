/*
 * @Author: AsisYu
 * @Date: 2025-04-24
 * @Description: 查询字符串预处理
 */
package utils

import (
	"net"
	"strings"
)

// SanitizeQuery 清理用户输入的查询
// 粘贴进来的URL只保留主机名，其余输入仅去除首尾空白，IPv6地址不受影响
func SanitizeQuery(q string) string {
	q = strings.TrimSpace(q)
	lower := strings.ToLower(q)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return q
	}

	q = q[strings.Index(q, "://")+3:]
	if idx := strings.IndexAny(q, "/?#"); idx != -1 {
		q = q[:idx]
	}
	if at := strings.LastIndex(q, "@"); at != -1 {
		q = q[at+1:]
	}
	if host, _, err := net.SplitHostPort(q); err == nil {
		return host
	}
	return strings.Trim(q, "[]")
}
