package whois

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"whoisd/types"

	"github.com/stretchr/testify/require"
)

// fakeNet 内存中的WHOIS网络，按 "host|query" 返回预置响应
type fakeNet struct {
	mu        sync.Mutex
	responses map[string]string
	hosts     map[string]bool
	hang      map[string]bool
	proxies   map[string]bool
	queries   []string
	dials     []string
}

func newFakeNet() *fakeNet {
	return &fakeNet{
		responses: make(map[string]string),
		hosts:     make(map[string]bool),
		hang:      make(map[string]bool),
		proxies:   make(map[string]bool),
	}
}

func (f *fakeNet) on(host, query, response string) *fakeNet {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hosts[host] = true
	f.responses[host+"|"+query] = response
	return f
}

// hangOn 接受连接和查询但永不应答
func (f *fakeNet) hangOn(host string) *fakeNet {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hosts[host] = true
	f.hang[host] = true
	return f
}

// socks5On 在 host 上提供无认证的SOCKS5代理，目标地址仍由 fakeNet 应答
func (f *fakeNet) socks5On(host string) *fakeNet {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hosts[host] = true
	f.proxies[host] = true
	return f
}

func (f *fakeNet) client() *Client {
	return NewClient().
		SetCache(NewEmptyServerCache()).
		SetDiscoverer(&fakeDiscoverer{cnameErr: errors.New("nxdomain"), srvErr: errors.New("nxdomain")}).
		SetDialer(f.dial)
}

func (f *fakeNet) dial(_ context.Context, network, address string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.dials = append(f.dials, address)
	known, proxy := f.hosts[host], f.proxies[host]
	f.mu.Unlock()

	if !known {
		return nil, &net.OpError{Op: "dial", Net: network, Err: errors.New("connection refused")}
	}

	client, server := net.Pipe()
	if proxy {
		go f.serveSOCKS5(server)
	} else {
		go f.serve(server, bufio.NewReader(server), host)
	}
	return client, nil
}

func (f *fakeNet) serve(conn net.Conn, r *bufio.Reader, host string) {
	defer conn.Close()

	line, err := r.ReadString('\n')
	if err != nil {
		return
	}
	query := strings.TrimRight(line, "\r\n")

	f.mu.Lock()
	f.queries = append(f.queries, host+"|"+query)
	hang := f.hang[host]
	response := f.responses[host+"|"+query]
	f.mu.Unlock()

	if hang {
		// 阻塞到客户端关闭连接
		_, _ = io.Copy(io.Discard, conn)
		return
	}
	_, _ = io.WriteString(conn, response)
}

func (f *fakeNet) serveSOCKS5(conn net.Conn) {
	r := bufio.NewReader(conn)

	greeting := make([]byte, 2)
	if _, err := io.ReadFull(r, greeting); err != nil {
		conn.Close()
		return
	}
	if _, err := io.ReadFull(r, make([]byte, greeting[1])); err != nil {
		conn.Close()
		return
	}
	_, _ = conn.Write([]byte{5, 0})

	head := make([]byte, 4)
	if _, err := io.ReadFull(r, head); err != nil {
		conn.Close()
		return
	}
	var target string
	switch head[3] {
	case 1, 4:
		size := net.IPv4len
		if head[3] == 4 {
			size = net.IPv6len
		}
		ip := make([]byte, size)
		_, _ = io.ReadFull(r, ip)
		target = net.IP(ip).String()
	case 3:
		n, _ := r.ReadByte()
		name := make([]byte, n)
		_, _ = io.ReadFull(r, name)
		target = string(name)
	}
	port := make([]byte, 2)
	_, _ = io.ReadFull(r, port)
	_, _ = conn.Write([]byte{5, 0, 0, 1, 0, 0, 0, 0, 0, 0})

	f.mu.Lock()
	f.dials = append(f.dials, "socks5->"+net.JoinHostPort(target, strconv.Itoa(int(port[0])<<8|int(port[1]))))
	f.mu.Unlock()

	f.serve(conn, r, target)
}

func (f *fakeNet) queried() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func (f *fakeNet) dialed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.dials...)
}

func (f *fakeNet) count(hostQuery string) int {
	n := 0
	for _, q := range f.queried() {
		if q == hostQuery {
			n++
		}
	}
	return n
}

type fakeDiscoverer struct {
	mu       sync.Mutex
	cname    string
	cnameErr error
	srv      string
	srvErr   error
	names    []string
}

func (d *fakeDiscoverer) LookupCNAME(_ context.Context, name string) (string, error) {
	d.mu.Lock()
	d.names = append(d.names, "CNAME "+name)
	d.mu.Unlock()
	return d.cname, d.cnameErr
}

func (d *fakeDiscoverer) LookupSRV(_ context.Context, name string) (string, uint16, error) {
	d.mu.Lock()
	d.names = append(d.names, "SRV "+name)
	d.mu.Unlock()
	if d.srvErr != nil {
		return "", 0, d.srvErr
	}
	return d.srv, types.DefaultPort, nil
}

func fixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func testOptions() types.Options {
	opts := types.DefaultOptions()
	opts.Timeout = 2 * time.Second
	return opts
}

func key(host, query string) string {
	return fmt.Sprintf("%s|%s", host, query)
}
