/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2026-10-19
 * @Description: IP / ASN 解析 - IANA -> RIR
 */
package whois

import (
	"context"
	"strings"

	"whoisd/pkg/logger"
	"whoisd/types"
)

var (
	rangeFields = []string{"inetnum", "inet6num", "NetRange"}
	routeFields = []string{"route", "route6", "CIDR"}
)

// IPOrASN 沿 IANA -> RIR 引用链查询，只返回最后一跳的记录
// 每一跳对整条记录都是权威的，任一跳失败即返回错误
func (c *Client) IPOrASN(ctx context.Context, query string, opts types.Options) (types.Record, error) {
	opts = opts.Normalize()
	log := logger.FromContext(ctx, "Whois")

	q := strings.TrimSpace(query)
	isIP := IsIP(q)
	if !isIP {
		if !IsASN(q) {
			return nil, newQueryError(ErrUnrecognizedQuery, query, "Unrecognized query %q: not an IP or ASN", query)
		}
		q = normalizeASN(q)
	}

	host, port := opts.Host, opts.Port
	if host == "" {
		raw, err := c.Query(ctx, IANAServer, types.DefaultPort, q, opts.Timeout, opts.Proxy)
		if err != nil {
			return nil, err
		}
		iana := ParseSimple(raw)
		host = iana.Get("whois")
		if host == "" {
			host = iana.Get("refer")
		}
		port = types.DefaultPort
	}
	if host == "" {
		return nil, newQueryError(ErrNoWhoisServer, query, "No WHOIS server found for %q", query)
	}

	var data types.Record
	// 不做环路检测：RIR链很短，且跳数受 Follow 限制
	for remaining := opts.Follow; remaining > 0 && host != ""; remaining-- {
		host = strings.ToLower(host)
		raw, err := c.Query(ctx, host, port, ipQuery(host, q, isIP), opts.Timeout, opts.Proxy)
		if err != nil {
			return nil, err
		}

		data = ParseSimple(raw)
		normalizeNetworkRecord(data)
		if opts.Raw {
			data[types.RawField] = raw
		}

		host, port = "", 0
		if ref := data.Get("ReferralServer"); ref != "" {
			host, port = splitHostPort(stripScheme(ref), types.DefaultPort)
			log.Debugf("%s: referral to %s:%d", query, host, port)
		}
	}

	return data, nil
}

// normalizeNetworkRecord 补齐 range / route，ASNumber 统一为纯数字
func normalizeNetworkRecord(rec types.Record) {
	if !rec.Has("range") {
		for _, field := range rangeFields {
			if v := rec.Get(field); v != "" {
				rec["range"] = v
				break
			}
		}
	}
	if !rec.Has("route") {
		for _, field := range routeFields {
			if v := rec.Get(field); v != "" {
				rec["route"] = v
				break
			}
		}
	}

	asn := rec.Get("ASNumber")
	if asn == "" {
		asn = rec.Get("aut-num")
	}
	if asn != "" {
		rec["ASNumber"] = normalizeASN(asn)
	}
}
