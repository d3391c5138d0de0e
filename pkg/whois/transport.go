/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2026-10-19
 * @Description: WHOIS传输层 - TCP端口43，可选SOCKS5代理
 */
package whois

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"
	"unicode/utf8"

	"whoisd/pkg/logger"
	"whoisd/types"

	"golang.org/x/net/proxy"
	"golang.org/x/text/encoding/charmap"
)

const defaultProxyPort = 1080

// DialContextFunc 拨号函数，可替换为测试用的假网络
type DialContextFunc func(ctx context.Context, network, address string) (net.Conn, error)

// contextDialer 让 DialContextFunc 满足 proxy.Dialer 和 proxy.ContextDialer
type contextDialer struct {
	dial DialContextFunc
}

func (d contextDialer) Dial(network, address string) (net.Conn, error) {
	return d.dial(context.Background(), network, address)
}

func (d contextDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return d.dial(ctx, network, address)
}

func (c *Client) dialFunc(timeout time.Duration, p *types.ProxyOptions) (DialContextFunc, error) {
	base := c.dial
	if base == nil {
		d := &net.Dialer{Timeout: timeout}
		base = d.DialContext
	}
	if p == nil || p.Host == "" {
		return base, nil
	}

	port := p.Port
	if port <= 0 {
		port = defaultProxyPort
	}
	var auth *proxy.Auth
	if p.Username != "" {
		auth = &proxy.Auth{User: p.Username, Password: p.Password}
	}

	dialer, err := proxy.SOCKS5("tcp", joinHostPort(p.Host, port), auth, contextDialer{dial: base})
	if err != nil {
		return nil, fmt.Errorf("create socks5 dialer: %w", err)
	}
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		return cd.DialContext, nil
	}
	return func(_ context.Context, network, address string) (net.Conn, error) {
		return dialer.Dial(network, address)
	}, nil
}

// Query 向 host:port 发送一行查询，读取直到对端关闭连接
func (c *Client) Query(ctx context.Context, host string, port int, query string, timeout time.Duration, p *types.ProxyOptions) (string, error) {
	if port <= 0 {
		port = types.DefaultPort
	}
	if timeout <= 0 {
		timeout = types.DefaultTimeout
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log := logger.FromContext(ctx, "Whois")
	start := time.Now()
	result := "ok"
	defer func() {
		QueriesCounter.WithLabelValues(host, result).Inc()
		QueryDuration.WithLabelValues(host).Observe(time.Since(start).Seconds())
	}()

	dial, err := c.dialFunc(timeout, p)
	if err != nil {
		result = "error"
		return "", &QueryError{Kind: ErrConnection, Query: query, Msg: "invalid proxy configuration", Err: err}
	}

	addr := joinHostPort(host, port)
	log.Debugf("querying %s with %q", addr, query)

	conn, err := dial(ctx, "tcp", addr)
	if err != nil {
		result = errorLabel(err)
		return "", transportError(ctx, addr, query, err)
	}
	defer conn.Close()

	deadline, _ := ctx.Deadline()
	_ = conn.SetDeadline(deadline)
	// 取消时强制唤醒阻塞的读写
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if _, err := io.WriteString(conn, query+"\r\n"); err != nil {
		result = errorLabel(err)
		return "", transportError(ctx, addr, query, err)
	}

	data, err := io.ReadAll(conn)
	if err != nil {
		result = errorLabel(err)
		return "", transportError(ctx, addr, query, err)
	}

	log.Debugf("received %d bytes from %s in %v", len(data), addr, time.Since(start).Round(time.Millisecond))
	return decodeResponse(data), nil
}

// decodeResponse 非UTF-8的响应按ISO-8859-1解码
func decodeResponse(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(decoded)
}

func transportError(ctx context.Context, addr, query string, err error) error {
	// 调用方取消时，截止时间被提前，底层错误会表现为超时
	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.Canceled) {
		err = ctxErr
	}
	if isTimeout(err) {
		return &QueryError{
			Kind:  ErrTimeout,
			Query: query,
			Msg:   fmt.Sprintf("WHOIS query %q to %s timed out", query, addr),
			Err:   err,
		}
	}
	return &QueryError{
		Kind:  ErrConnection,
		Query: query,
		Msg:   fmt.Sprintf("WHOIS query %q to %s failed", query, addr),
		Err:   err,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func errorLabel(err error) string {
	if isTimeout(err) {
		return "timeout"
	}
	return "error"
}
