/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2026-10-19
 * @Description: WHOIS响应解析 - 简单键值格式与域名多段格式
 */
package whois

import (
	"strings"

	"whoisd/types"
)

// 注释行前缀
var commentPrefixes = []string{"%", "#"}

// 遇到这些行之后的内容都是免责声明
var terminators = []string{
	">>> last update of whois database",
	">>> last update of rdap database",
	"for more information on whois status codes",
	"--",
}

// labelAliases 常见字段变体 -> 统一名称，原字段保留
var labelAliases = map[string]string{
	"registry expiry date":                   "Expiry Date",
	"registrar registration expiration date": "Expiry Date",
	"expiration date":                        "Expiry Date",
	"expiry date":                            "Expiry Date",
	"expire date":                            "Expiry Date",
	"expires on":                             "Expiry Date",
	"expires":                                "Expiry Date",
	"paid-till":                              "Expiry Date",
	"creation date":                          "Created Date",
	"created":                                "Created Date",
	"created on":                             "Created Date",
	"registered on":                          "Created Date",
	"registration time":                      "Created Date",
	"updated date":                           "Updated Date",
	"last updated":                           "Updated Date",
	"last modified":                          "Updated Date",
	"changed":                                "Updated Date",
	"domain name":                            "Domain Name",
	"domain":                                 "Domain Name",
	"name server":                            "Name Server",
	"nameserver":                             "Name Server",
	"name servers":                           "Name Server",
	"nserver":                                "Name Server",
	"domain status":                          "Domain Status",
	"status":                                 "Domain Status",
	"sponsoring registrar":                   "Registrar",
}

var privacyFields = func() map[string]bool {
	fields := make(map[string]bool)
	roles := []string{"registrant", "admin", "tech", "billing"}
	attrs := []string{
		"name", "organization", "street", "city", "state/province", "postal code",
		"country", "phone", "phone ext", "fax", "fax ext", "email",
	}
	for _, role := range roles {
		fields["registry "+role+" id"] = true
		for _, attr := range attrs {
			fields[role+" "+attr] = true
		}
	}
	return fields
}()

// IsPrivacyField 是否为需要脱敏的联系人字段
func IsPrivacyField(key string) bool {
	return privacyFields[strings.ToLower(strings.TrimSpace(key))]
}

// ParseSimple 逐行解析 key: value，重复键累积为序列
func ParseSimple(raw string) types.Record {
	rec := types.Record{}
	for _, line := range splitLines(raw) {
		line = strings.TrimSpace(line)
		if line == "" || isComment(line) {
			continue
		}
		key, value, ok := splitKeyValue(line)
		if !ok {
			continue
		}
		rec.Add(key, value)
	}
	return rec
}

// ParseDomain 按空行分段解析域名WHOIS响应（注册局段、注册商段、声明段）
func ParseDomain(raw string, ignorePrivacy bool) types.Record {
	rec := types.Record{}
	var text []string

	for _, para := range splitParagraphs(splitLines(raw)) {
		done := parseParagraph(rec, para, &text)
		if done {
			break
		}
	}

	if len(text) > 0 {
		rec[types.TextField] = text
	}
	if ignorePrivacy {
		redact(rec)
	}
	return rec
}

// parseParagraph 返回true表示遇到结束标记
// 值为空的键作为标题，后续无键的行是它的值（如 .uk 的 "Name servers:"）
func parseParagraph(rec types.Record, lines []string, text *[]string) bool {
	heading := ""
	headingUsed := false

	flush := func() {
		if heading != "" && !headingUsed {
			addDomainField(rec, heading, "")
		}
		heading, headingUsed = "", false
	}
	defer flush()

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isComment(trimmed) {
			continue
		}
		if isTerminator(trimmed) {
			return true
		}

		key, value, ok := splitKeyValue(trimmed)
		switch {
		case ok && value != "":
			flush()
			addDomainField(rec, key, value)
		case ok:
			flush()
			heading = key
		case heading != "":
			addDomainField(rec, heading, trimmed)
			headingUsed = true
		default:
			*text = append(*text, trimmed)
		}
	}
	return false
}

func addDomainField(rec types.Record, key, value string) {
	rec.Add(key, value)
	if alias, ok := labelAliases[strings.ToLower(key)]; ok && alias != key {
		rec.Add(alias, value)
	}
}

func redact(rec types.Record) {
	for key := range rec {
		if IsPrivacyField(key) {
			rec[key] = ""
		}
	}
}

func splitLines(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return strings.Split(raw, "\n")
}

func splitParagraphs(lines []string) [][]string {
	var out [][]string
	var cur []string
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, line)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// splitKeyValue 在第一个冒号处切分；"http://..." 这类无键行不算
func splitKeyValue(line string) (string, string, bool) {
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return "", "", false
	}
	if strings.HasPrefix(line[idx+1:], "//") {
		return "", "", false
	}
	key := strings.TrimSpace(line[:idx])
	if key == "" {
		return "", "", false
	}
	return key, strings.TrimSpace(line[idx+1:]), true
}

func isComment(line string) bool {
	for _, prefix := range commentPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

func isTerminator(line string) bool {
	lower := strings.ToLower(line)
	for _, t := range terminators {
		if lower == t || (t != "--" && strings.HasPrefix(lower, t)) {
			return true
		}
	}
	return false
}
