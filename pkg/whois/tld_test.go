package whois

import (
	"context"
	"errors"
	"sync"
	"testing"

	"whoisd/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTLD(t *testing.T) {
	fake := newFakeNet().on(IANAServer, "com", fixture(t, "iana_com.txt"))

	for _, q := range []string{"com", "COM", ".com"} {
		t.Run(q, func(t *testing.T) {
			c := fake.client()
			rec, err := c.TLD(context.Background(), q, testOptions())
			require.NoError(t, err)
			assert.Equal(t, "whois.verisign-grs.com", rec.Get("whois"))
			assert.Equal(t, "COM", rec.Get("domain"))
			assert.False(t, rec.Has(types.RawField))

			server, ok := c.Cache().Get("com")
			require.True(t, ok)
			assert.Equal(t, "whois.verisign-grs.com", server)
		})
	}
}

func TestTLDRaw(t *testing.T) {
	raw := fixture(t, "iana_com.txt")
	c := newFakeNet().on(IANAServer, "com", raw).client()

	opts := testOptions()
	opts.Raw = true
	rec, err := c.TLD(context.Background(), "com", opts)
	require.NoError(t, err)
	assert.Equal(t, raw, rec[types.RawField])
}

func TestTLDCustomHost(t *testing.T) {
	fake := newFakeNet().on("whois.mirror.example", "org", "domain: ORG\nwhois: whois.pir.org\n")
	c := fake.client()

	opts := testOptions()
	opts.Host = "whois.mirror.example"
	opts.Port = 4343
	rec, err := c.TLD(context.Background(), "org", opts)
	require.NoError(t, err)
	assert.Equal(t, "whois.pir.org", rec.Get("whois"))
	assert.Equal(t, []string{"whois.mirror.example:4343"}, fake.dialed())
}

// TestTLDCustomHostNotCached 自定义 host 的应答不能影响后续的注册局解析
func TestTLDCustomHostNotCached(t *testing.T) {
	fake := newFakeNet().
		on("attacker.example", "se", "domain: SE\nwhois: evil.example\n").
		on(IANAServer, "se", "domain: SE\nwhois: whois.iis.se\n")
	c := fake.client()

	opts := testOptions()
	opts.Host = "attacker.example"
	rec, err := c.TLD(context.Background(), "se", opts)
	require.NoError(t, err)
	assert.Equal(t, "evil.example", rec.Get("whois"))

	_, cached := c.Cache().Get("se")
	assert.False(t, cached)

	server, err := c.ServerFor(context.Background(), "se", testOptions())
	require.NoError(t, err)
	assert.Equal(t, "whois.iis.se", server)
	assert.Equal(t, 1, fake.count(key(IANAServer, "se")))
}

// TestTLDReferFallback 没有 whois 字段时使用 refer
func TestTLDReferFallback(t *testing.T) {
	c := newFakeNet().on(IANAServer, "example", "refer: whois.nic.example\ndomain: EXAMPLE\n").client()

	rec, err := c.TLD(context.Background(), "example", testOptions())
	require.NoError(t, err)
	assert.Equal(t, "whois.nic.example", rec.Get("whois"))
}

func TestTLDDNSFallback(t *testing.T) {
	nowhois := fixture(t, "iana_nowhois.txt")

	tests := []struct {
		name string
		disc *fakeDiscoverer
		want string
	}{
		{
			name: "srv preferred",
			disc: &fakeDiscoverer{cname: "whois.cname.example", srv: "whois.srv.example"},
			want: "whois.srv.example",
		},
		{
			name: "cname when srv fails",
			disc: &fakeDiscoverer{cname: "whois.cname.example", srvErr: errors.New("servfail")},
			want: "whois.cname.example",
		},
		{
			name: "srv when cname fails",
			disc: &fakeDiscoverer{cnameErr: errors.New("nxdomain"), srv: "whois.srv.example"},
			want: "whois.srv.example",
		},
		{
			name: "both fail keeps domain record",
			disc: &fakeDiscoverer{cnameErr: errors.New("nxdomain"), srvErr: errors.New("nxdomain")},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newFakeNet().on(IANAServer, "exampletld", nowhois).client().SetDiscoverer(tt.disc)

			rec, err := c.TLD(context.Background(), "exampletld", testOptions())
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.Get("whois"))
			assert.Equal(t, "EXAMPLETLD", rec.Get("domain"))
			assert.ElementsMatch(t, []string{
				"CNAME exampletld.whois-servers.net",
				"SRV _nicname._tcp.exampletld",
			}, tt.disc.names)

			_, cached := c.Cache().Get("exampletld")
			assert.Equal(t, tt.want != "", cached)
		})
	}
}

func TestTLDNotFound(t *testing.T) {
	c := newFakeNet().on(IANAServer, "zzzz", fixture(t, "iana_notfound.txt")).client()

	_, err := c.TLD(context.Background(), "zzzz", testOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTldNotFound))
	assert.Equal(t, `TLD "zzzz" not found`, err.Error())
}

func TestTLDTransportError(t *testing.T) {
	c := newFakeNet().client()

	_, err := c.TLD(context.Background(), "com", testOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConnection))
}

// TestTLDCacheIdempotent 并发写入同一TLD结果一致
func TestTLDCacheIdempotent(t *testing.T) {
	fake := newFakeNet().on(IANAServer, "com", fixture(t, "iana_com.txt"))
	c := fake.client()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.TLD(context.Background(), "com", testOptions())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, map[string]string{"com": "whois.verisign-grs.com"}, c.Cache().Snapshot())
}

func TestRegistryServerUsesCache(t *testing.T) {
	fake := newFakeNet().on(IANAServer, "com", fixture(t, "iana_com.txt"))
	c := fake.client()

	for i := 0; i < 3; i++ {
		server, err := c.registryServer(context.Background(), "com", "google.com", testOptions())
		require.NoError(t, err)
		assert.Equal(t, "whois.verisign-grs.com", server)
	}
	assert.Equal(t, 1, fake.count(key(IANAServer, "com")))
}

func TestRegistryServerUnsupported(t *testing.T) {
	c := newFakeNet().on(IANAServer, "exampletld", fixture(t, "iana_nowhois.txt")).client()

	_, err := c.registryServer(context.Background(), "exampletld", "foo.exampletld", testOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTldUnsupported))
	assert.Equal(t, `TLD for "foo.exampletld" not supported`, err.Error())
}

func TestServerFor(t *testing.T) {
	fake := newFakeNet().on(IANAServer, "com", fixture(t, "iana_com.txt"))
	c := fake.client()

	for _, q := range []string{"com", ".COM"} {
		server, err := c.ServerFor(context.Background(), q, types.Options{})
		require.NoError(t, err)
		assert.Equal(t, "whois.verisign-grs.com", server)
	}
	assert.Equal(t, 1, fake.count(key(IANAServer, "com")))

	_, err := c.ServerFor(context.Background(), "google.com", types.Options{})
	assert.True(t, errors.Is(err, ErrUnrecognizedQuery))
}
