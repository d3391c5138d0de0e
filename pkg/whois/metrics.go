/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2026-10-19
 * @Description: WHOIS查询与TLD缓存的Prometheus指标
 */
package whois

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueriesCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "whoisd_queries_total",
		Help: "WHOIS round trips by server and result",
	}, []string{"server", "result"})
	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "whoisd_query_duration_seconds",
		Help:    "Duration of a single WHOIS round trip",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"server"})
	TLDCacheHitsCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "whoisd_tld_cache_hits_total",
		Help: "TLD server lookups answered from the in-memory cache",
	})
	TLDCacheMissesCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "whoisd_tld_cache_misses_total",
		Help: "TLD server lookups that needed discovery",
	})
	DNSFallbackCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "whoisd_dns_fallback_total",
		Help: "DNS based WHOIS server discovery attempts",
	}, []string{"type", "result"})
)
