/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2026-10-19
 * @Description: WHOIS服务器静态表：已知TLD服务器、查询格式覆盖、拼写纠正、引用字段
 */
package whois

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"whoisd/types"
)

const (
	IANAServer = "whois.iana.org"
	ARINServer = "whois.arin.net"
)

// seedTLDServers 缓存初始内容
var seedTLDServers = map[string]string{
	"com":  "whois.verisign-grs.com",
	"net":  "whois.verisign-grs.com",
	"org":  "whois.pir.org",
	"info": "whois.nic.info",
	"io":   "whois.nic.io",
	"co":   "whois.nic.co",
	"de":   "whois.denic.de",
	"jp":   "whois.jprs.jp",
	"uk":   "whois.nic.uk",
	"fr":   "whois.nic.fr",
	"nl":   "whois.domain-registry.nl",
	"eu":   "whois.eu",
	"ai":   "whois.nic.ai",
	"app":  "whois.nic.google",
	"dev":  "whois.nic.google",
	"me":   "whois.nic.me",
	"tv":   "whois.nic.tv",
	"xyz":  "whois.nic.xyz",
}

// domainQueryTemplates 按服务器覆盖域名查询格式
// 模板参数：ACE域名、Unicode域名
var domainQueryTemplates = map[string]func(ace, unicode string) string{
	"whois.denic.de": func(_, unicode string) string {
		return "-T dn " + unicode
	},
	"whois.jprs.jp": func(ace, _ string) string {
		return ace + "/e"
	},
	"whois.verisign-grs.com": func(ace, _ string) string {
		return "domain " + ace
	},
}

// misspelledServers 一些服务器在引用字段中发布的错误地址
var misspelledServers = map[string]string{
	"whois.google.com":               "whois.nic.google",
	"www.gandi.net/whois":            "whois.gandi.net",
	"who.godaddy.com/":               "whois.godaddy.com",
	"whois.godaddy.com/":             "whois.godaddy.com",
	"whois.godaddy":                  "whois.godaddy.com",
	"www.nic.ru/whois/en/":           "whois.nic.ru",
	"www.whois.corporatedomains.com": "whois.corporatedomains.com",
	"www.gname.com/whois":            "whois.gname.com",
	"porkbun.com/whois":              "whois.porkbun.com",

	"www.safenames.net/domainnames/whoissearch.aspx": "whois.safenames.net",
}

// referralFields 按优先级排列的下一跳字段
var referralFields = []string{
	"Registrar WHOIS Server",
	"Registry WHOIS Server",
	"ReferralServer",
	"Registrar Whois",
	"Whois Server",
	"WHOIS Server",
}

// registrarURLServers Registrar URL 中包含的域名 -> 该注册商的WHOIS服务器
var registrarURLServers = []struct {
	match  string
	server string
}{
	{"godaddy.com", "whois.godaddy.com"},
	{"namecheap.com", "whois.namecheap.com"},
	{"gandi.net", "whois.gandi.net"},
	{"markmonitor.com", "whois.markmonitor.com"},
	{"tucows.com", "whois.tucows.com"},
	{"enom.com", "whois.enom.com"},
	{"networksolutions.com", "whois.networksolutions.com"},
	{"name.com", "whois.name.com"},
	{"porkbun.com", "whois.porkbun.com"},
	{"dynadot.com", "whois.dynadot.com"},
}

func domainQuery(server, ace string) string {
	if tmpl, ok := domainQueryTemplates[server]; ok {
		return tmpl(ace, ToUnicode(ace))
	}
	return ace
}

// ipQuery 按RIR改写IP/ASN查询
func ipQuery(server, query string, isIP bool) string {
	if server == ARINServer {
		if isIP {
			return "+ n " + query
		}
		return "+ a " + query
	}
	if isIP {
		return query
	}
	return "AS" + query
}

// referralFromRecord 从记录中取下一跳服务器
func referralFromRecord(r types.Record) string {
	for _, field := range referralFields {
		if v := strings.TrimSpace(r.Get(field)); v != "" {
			return v
		}
	}

	if u := strings.ToLower(r.Get("Registrar URL")); u != "" {
		for _, known := range registrarURLServers {
			if strings.Contains(u, known.match) {
				return known.server
			}
		}
	}
	return ""
}

// correctServer 应用拼写纠正表
func correctServer(server string) string {
	key := strings.ToLower(strings.TrimSpace(server))
	if fixed, ok := misspelledServers[key]; ok {
		return fixed
	}
	return key
}

// stripScheme 去除协议和路径，返回主机名（可能带端口）
// 先查纠正表，避免把带路径的错误地址截断
func stripScheme(ref string) string {
	ref = strings.TrimSpace(ref)
	lower := strings.ToLower(ref)
	for _, scheme := range []string{"rwhois://", "whois://", "https://", "http://"} {
		if strings.HasPrefix(lower, scheme) {
			ref = ref[len(scheme):]
			break
		}
	}
	if fixed, ok := misspelledServers[strings.ToLower(ref)]; ok {
		return fixed
	}
	if idx := strings.IndexAny(ref, "/?#"); idx != -1 {
		ref = ref[:idx]
	}
	return strings.ToLower(ref)
}

// splitHostPort 解析 host 或 host:port，缺省返回 defaultPort
func splitHostPort(hostport string, defaultPort int) (string, int) {
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		return hostport, defaultPort
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return host, defaultPort
	}
	return host, port
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, fmt.Sprintf("%d", port))
}
