/*
 * @Author: AsisYu
 * @Date: 2025-09-02
 * @Description: Redis键构造工具（限流计数、JWT nonce）
 */
package utils

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

const maxKeyPart = 80

// ShortHash10 长字符串的10位十六进制摘要
func ShortHash10(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])[:10]
}

// sanitizeKeyPart 去空白、转小写、空格替换为下划线
// 超长的片段用摘要代替，保证键长度有界且不同输入不冲突
func sanitizeKeyPart(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, " ", "_")
	if len(s) > maxKeyPart {
		s = s[:maxKeyPart-11] + "~" + ShortHash10(s)
	}
	return s
}

// BuildKey 用 ':' 连接各片段，例如 BuildKey("limit", ip, path)
// IPv6地址中的 ':' 保留原样，键只用于存储不会被再次拆分
func BuildKey(parts ...string) string {
	if len(parts) == 0 {
		return ""
	}
	sanitized := make([]string, 0, len(parts))
	for _, p := range parts {
		sanitized = append(sanitized, sanitizeKeyPart(p))
	}
	return strings.Join(sanitized, ":")
}

// NonceKey JWT nonce的Redis键
func NonceKey(nonce string) string {
	return BuildKey("nonce", nonce)
}

// TokenIssueKey 按IP统计令牌签发次数的Redis键
func TokenIssueKey(ip string) string {
	return BuildKey("token", "ip", ip)
}
