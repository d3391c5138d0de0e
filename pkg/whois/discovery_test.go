package whois

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startDNSServer 启动本地UDP DNS服务器，返回地址
func startDNSServer(t *testing.T) string {
	t.Helper()

	mux := dns.NewServeMux()
	mux.HandleFunc(".", func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(r)

		q := r.Question[0]
		var records []string
		switch {
		case q.Qtype == dns.TypeCNAME && q.Name == "io.whois-servers.net.":
			records = []string{"io.whois-servers.net. 300 IN CNAME whois.nic.io."}
		case q.Qtype == dns.TypeSRV && q.Name == "_nicname._tcp.io.":
			records = []string{
				"_nicname._tcp.io. 300 IN SRV 20 100 43 whois.backup.io.",
				"_nicname._tcp.io. 300 IN SRV 10 5 43 whois.secondary.io.",
				"_nicname._tcp.io. 300 IN SRV 10 50 4343 whois.primary.io.",
			}
		case q.Qtype == dns.TypeSRV && q.Name == "_nicname._tcp.none.":
			records = []string{"_nicname._tcp.none. 300 IN SRV 0 0 0 ."}
		default:
			m.Rcode = dns.RcodeNameError
		}
		for _, s := range records {
			rr, err := dns.NewRR(s)
			if err == nil {
				m.Answer = append(m.Answer, rr)
			}
		}
		_ = w.WriteMsg(m)
	})

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	started := make(chan struct{})
	srv := &dns.Server{PacketConn: pc, Handler: mux, NotifyStartedFunc: func() { close(started) }}
	go func() {
		_ = srv.ActivateAndServe()
	}()
	t.Cleanup(func() {
		_ = srv.Shutdown()
	})

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("dns server did not start")
	}
	return pc.LocalAddr().String()
}

func TestDNSDiscovererCNAME(t *testing.T) {
	d := NewDNSDiscoverer(startDNSServer(t), time.Second)

	host, err := d.LookupCNAME(context.Background(), "io.whois-servers.net")
	require.NoError(t, err)
	assert.Equal(t, "whois.nic.io", host)

	_, err = d.LookupCNAME(context.Background(), "missing.whois-servers.net")
	assert.Error(t, err)
}

// TestDNSDiscovererSRV 优先级数值最小者胜出，同优先级取权重最大
func TestDNSDiscovererSRV(t *testing.T) {
	d := NewDNSDiscoverer(startDNSServer(t), time.Second)

	host, port, err := d.LookupSRV(context.Background(), "_nicname._tcp.io")
	require.NoError(t, err)
	assert.Equal(t, "whois.primary.io", host)
	assert.Equal(t, uint16(4343), port)

	_, _, err = d.LookupSRV(context.Background(), "_nicname._tcp.none")
	assert.Error(t, err)

	_, _, err = d.LookupSRV(context.Background(), "_nicname._tcp.missing")
	assert.Error(t, err)
}

func TestDNSDiscovererWithClient(t *testing.T) {
	fake := newFakeNet().on(IANAServer, "io", "domain: IO\n")
	c := fake.client().SetDiscoverer(NewDNSDiscoverer(startDNSServer(t), time.Second))

	rec, err := c.TLD(context.Background(), "io", testOptions())
	require.NoError(t, err)
	assert.Equal(t, "whois.primary.io", rec.Get("whois"))
}

func TestNewDNSDiscovererServers(t *testing.T) {
	assert.Equal(t, []string{"127.0.0.1:53"}, NewDNSDiscoverer("127.0.0.1", time.Second).Servers())
	assert.Equal(t, []string{"127.0.0.1:5353"}, NewDNSDiscoverer("127.0.0.1:5353", time.Second).Servers())
	assert.NotEmpty(t, NewDNSDiscoverer("", time.Second).Servers())
}
