/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2026-10-19
 * @Description: 查询类型识别
 */
package whois

import (
	"net/netip"
	"regexp"
	"strings"

	"whoisd/types"

	"golang.org/x/net/idna"
)

var (
	asnPattern   = regexp.MustCompile(`(?i)^(as)?\d+$`)
	tldPattern   = regexp.MustCompile(`^(?:[a-z]{2,64}|xn--[a-z0-9-]{1,59})$`)
	labelPattern = regexp.MustCompile(`^(?:[a-z0-9]|[a-z0-9][a-z0-9-]{0,62}[a-z0-9])$`)
)

// Classify 判断查询属于 ip / asn / tld / domain 中的哪一种
func Classify(query string) (types.QueryKind, error) {
	q := strings.TrimSpace(query)

	switch {
	case IsIP(q):
		return types.KindIP, nil
	case IsASN(q):
		return types.KindASN, nil
	case IsTLD(q):
		return types.KindTLD, nil
	case IsDomain(q):
		return types.KindDomain, nil
	}

	return "", newQueryError(ErrUnrecognizedQuery, query, "Unrecognized query %q: not a domain, TLD, IP or ASN", query)
}

func IsIP(q string) bool {
	_, err := netip.ParseAddr(q)
	return err == nil
}

func IsASN(q string) bool {
	return asnPattern.MatchString(q)
}

// IsTLD 单个标签：2-64个字母，或xn--开头的ACE标签
func IsTLD(q string) bool {
	q = strings.TrimPrefix(q, ".")
	if q == "" || strings.Contains(q, ".") {
		return false
	}
	return tldPattern.MatchString(ToASCII(q))
}

// IsDomain 至少两个标签，最右侧为合法TLD
func IsDomain(q string) bool {
	q = strings.TrimSuffix(ToASCII(q), ".")
	labels := strings.Split(q, ".")
	if len(labels) < 2 {
		return false
	}
	if !tldPattern.MatchString(labels[len(labels)-1]) {
		return false
	}
	for _, label := range labels[:len(labels)-1] {
		if !labelPattern.MatchString(label) {
			return false
		}
	}
	return true
}

// ToASCII 转换为ASCII兼容编码（punycode），失败时返回小写原文
func ToASCII(s string) string {
	lower := strings.ToLower(strings.TrimSpace(s))
	ace, err := idna.ToASCII(lower)
	if err != nil {
		return lower
	}
	return ace
}

// ToUnicode 将ACE编码还原为Unicode
func ToUnicode(s string) string {
	u, err := idna.ToUnicode(s)
	if err != nil {
		return s
	}
	return u
}

// normalizeTLD 去掉开头的点并转换为ACE
func normalizeTLD(q string) string {
	return ToASCII(strings.TrimPrefix(strings.TrimSpace(q), "."))
}

// normalizeASN AS13335 -> 13335
func normalizeASN(q string) string {
	q = strings.TrimSpace(q)
	if len(q) > 2 && strings.EqualFold(q[:2], "as") {
		return q[2:]
	}
	return q
}
