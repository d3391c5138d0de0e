package services

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"whoisd/pkg/whois"
	"whoisd/types"

	"github.com/miekg/dns"
)

// fakeWhois 按 "host|query" 返回预置响应，未知主机拒绝连接
type fakeWhois struct {
	mu        sync.Mutex
	responses map[string]string
	dials     int
}

func newFakeWhois(pairs ...string) *fakeWhois {
	f := &fakeWhois{responses: make(map[string]string)}
	for i := 0; i+2 < len(pairs); i += 3 {
		f.responses[pairs[i]+"|"+pairs[i+1]] = pairs[i+2]
	}
	return f
}

func (f *fakeWhois) knows(host string) bool {
	for k := range f.responses {
		if strings.HasPrefix(k, host+"|") {
			return true
		}
	}
	return false
}

func (f *fakeWhois) dial(_ context.Context, network, address string) (net.Conn, error) {
	host, _, _ := net.SplitHostPort(address)

	f.mu.Lock()
	f.dials++
	known := f.knows(host)
	f.mu.Unlock()
	if !known {
		return nil, &net.OpError{Op: "dial", Net: network, Err: errors.New("connection refused")}
	}

	client, server := net.Pipe()
	go func() {
		defer server.Close()
		line, err := bufio.NewReader(server).ReadString('\n')
		if err != nil {
			return
		}
		f.mu.Lock()
		resp := f.responses[host+"|"+strings.TrimRight(line, "\r\n")]
		f.mu.Unlock()
		_, _ = io.WriteString(server, resp)
	}()
	return client, nil
}

func (f *fakeWhois) dialCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dials
}

type noDNS struct{}

func (noDNS) LookupCNAME(context.Context, string) (string, error) {
	return "", errors.New("nxdomain")
}

func (noDNS) LookupSRV(context.Context, string) (string, uint16, error) {
	return "", 0, errors.New("nxdomain")
}

func fakeClient(f *fakeWhois) *whois.Client {
	return whois.NewClient().
		SetCache(whois.NewEmptyServerCache()).
		SetDiscoverer(noDNS{}).
		SetDialer(f.dial)
}

func fastOptions() types.Options {
	opts := types.DefaultOptions()
	opts.Timeout = 2 * time.Second
	return opts
}

// startDNS 启动只应答 com.whois-servers.net CNAME 的本地DNS服务器
func startDNS() (string, func(), error) {
	mux := dns.NewServeMux()
	mux.HandleFunc(".", func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(r)
		if q := r.Question[0]; q.Name == "com.whois-servers.net." && q.Qtype == dns.TypeCNAME {
			rr, _ := dns.NewRR("com.whois-servers.net. 60 IN CNAME whois.verisign-grs.com.")
			m.Answer = append(m.Answer, rr)
		} else {
			m.Rcode = dns.RcodeNameError
		}
		_ = w.WriteMsg(m)
	})

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		return "", nil, err
	}
	started := make(chan struct{})
	srv := &dns.Server{PacketConn: pc, Handler: mux, NotifyStartedFunc: func() { close(started) }}
	go func() { _ = srv.ActivateAndServe() }()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		return "", nil, errors.New("dns server did not start")
	}
	return pc.LocalAddr().String(), func() { _ = srv.Shutdown() }, nil
}

const ianaCom = "domain:       COM\nwhois:        whois.verisign-grs.com\n"
