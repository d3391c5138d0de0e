/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2025-04-10 18:09:00
 * @Description: 按WHOIS服务器划分的熔断器
 */
package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"sync"
	"time"

	"whoisd/pkg/logger"
	"whoisd/pkg/whois"
)

const (
	DefaultBreakerThreshold = 5
	DefaultBreakerReset     = 60 * time.Second
)

// ServerBreakers 每个上游WHOIS服务器一个熔断器
// 连续拨号失败达到阈值后，在重置时间内直接拒绝连接该服务器
type ServerBreakers struct {
	mu        sync.Mutex
	breakers  map[string]*CircuitBreaker
	threshold int
	reset     time.Duration
}

func NewServerBreakers(threshold int, reset time.Duration) *ServerBreakers {
	return &ServerBreakers{
		breakers:  make(map[string]*CircuitBreaker),
		threshold: threshold,
		reset:     reset,
	}
}

// Get 获取（必要时创建）服务器的熔断器
func (sb *ServerBreakers) Get(host string) *CircuitBreaker {
	host = strings.ToLower(host)

	sb.mu.Lock()
	defer sb.mu.Unlock()

	if cb, ok := sb.breakers[host]; ok {
		return cb
	}
	cb := NewCircuitBreaker(sb.threshold, sb.reset)
	log := logger.Module("Breaker")
	cb.OnStateChange(func(from, to CircuitState) {
		switch to {
		case StateOpen:
			log.Warnf("WHOIS server %s unreachable, circuit %s -> %s", host, from, to)
		default:
			log.Infof("WHOIS server %s circuit %s -> %s", host, from, to)
		}
	})
	sb.breakers[host] = cb
	return cb
}

// WrapDialer 给拨号函数加上熔断保护，dial 为 nil 时使用 net.Dialer
func (sb *ServerBreakers) WrapDialer(dial whois.DialContextFunc) whois.DialContextFunc {
	if dial == nil {
		d := &net.Dialer{}
		dial = d.DialContext
	}

	return func(ctx context.Context, network, address string) (net.Conn, error) {
		host, _, err := net.SplitHostPort(address)
		if err != nil {
			host = address
		}

		cb := sb.Get(host)
		if !cb.AllowRequest() {
			return nil, fmt.Errorf("dial %s: %w", address, ErrCircuitOpen)
		}

		conn, err := dial(ctx, network, address)
		if err != nil && errors.Is(ctx.Err(), context.Canceled) {
			// 调用方取消不计入失败
			return nil, err
		}
		cb.RecordResult(err == nil)
		return conn, err
	}
}

// Status 返回所有熔断器的状态，按服务器名排序
func (sb *ServerBreakers) Status() map[string]interface{} {
	sb.mu.Lock()
	hosts := make([]string, 0, len(sb.breakers))
	for host := range sb.breakers {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)
	breakers := make([]*CircuitBreaker, len(hosts))
	for i, host := range hosts {
		breakers[i] = sb.breakers[host]
	}
	sb.mu.Unlock()

	out := make(map[string]interface{}, len(hosts))
	for i, host := range hosts {
		out[host] = breakers[i].Status()
	}
	return out
}

// OpenCount 处于开启状态的熔断器数量
func (sb *ServerBreakers) OpenCount() int {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	n := 0
	for _, cb := range sb.breakers {
		if cb.State() == StateOpen {
			n++
		}
	}
	return n
}
