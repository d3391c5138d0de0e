package whois

import (
	"testing"

	"whoisd/types"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSimple(t *testing.T) {
	raw := "% comment line\r\n" +
		"# another comment\r\n" +
		"\r\n" +
		"refer:        whois.verisign-grs.com\r\n" +
		"domain:       COM\r\n" +
		"nserver:      A.GTLD-SERVERS.NET\r\n" +
		"nserver:      B.GTLD-SERVERS.NET\r\n" +
		"remarks:      Registration information: http://www.verisigninc.com\r\n" +
		"no colon here\r\n" +
		"http://example.com/terms\r\n"

	want := types.Record{
		"refer":   "whois.verisign-grs.com",
		"domain":  "COM",
		"nserver": []string{"A.GTLD-SERVERS.NET", "B.GTLD-SERVERS.NET"},
		"remarks": "Registration information: http://www.verisigninc.com",
	}
	if diff := cmp.Diff(want, ParseSimple(raw)); diff != "" {
		t.Errorf("ParseSimple() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSimpleEmpty(t *testing.T) {
	assert.Empty(t, ParseSimple(""))
	assert.Empty(t, ParseSimple("\n\n% only comments\n"))
}

// TestParseSimpleRoundTrip 测试 key: value 文本解析后值保持原序
func TestParseSimpleRoundTrip(t *testing.T) {
	rec := ParseSimple(fixture(t, "iana_com.txt"))

	assert.Equal(t, "whois.verisign-grs.com", rec.Get("whois"))
	assert.Equal(t, "COM", rec.Get("domain"))
	assert.Equal(t, []string{"12061 Bluemont Way", "Reston VA 20190", "United States of America (the)"}, rec.Values("address"))
	assert.Equal(t, []string{"VeriSign Global Registry Services", "VeriSign Global Registry Services"}, rec.Values("organisation"))
	assert.Equal(t, "1985-01-01", rec.Get("created"))
}

func TestParseDomainRegistry(t *testing.T) {
	rec := ParseDomain(fixture(t, "verisign_google.txt"), true)

	assert.Equal(t, "GOOGLE.COM", rec.Get("Domain Name"))
	assert.Equal(t, "2028-09-14T04:00:00Z", rec.Get("Registry Expiry Date"))
	assert.Equal(t, "2028-09-14T04:00:00Z", rec.Get("Expiry Date"))
	assert.Equal(t, "1997-09-15T04:00:00Z", rec.Get("Created Date"))
	assert.Equal(t, "whois.markmonitor.com", rec.Get("Registrar WHOIS Server"))
	assert.Equal(t, []string{"NS1.GOOGLE.COM", "NS2.GOOGLE.COM"}, rec.Values("Name Server"))
	assert.Len(t, rec.Values("Domain Status"), 2)

	// 结束标记之后的声明不进入记录
	assert.False(t, rec.Has("NOTICE"))
	assert.False(t, rec.Has(types.TextField))
}

func TestParseDomainPrivacy(t *testing.T) {
	raw := fixture(t, "markmonitor_google.txt")

	redacted := ParseDomain(raw, true)
	assert.Equal(t, "", redacted["Registrant Organization"])
	assert.Equal(t, "", redacted["Registrant Email"])
	assert.Equal(t, "", redacted["Admin Country"])
	assert.Equal(t, "", redacted["Tech Organization"])
	assert.True(t, redacted.Has("Registrant Name"))
	assert.Equal(t, "MarkMonitor, Inc.", redacted.Get("Registrar"))
	assert.Equal(t, "2028-09-13T07:00:00+0000", redacted.Get("Expiry Date"))

	full := ParseDomain(raw, false)
	assert.Equal(t, "Google LLC", full.Get("Registrant Organization"))
	assert.Equal(t, "US", full.Get("Admin Country"))
	assert.Equal(t, "", full.Get("Registrant Name"))
}

// TestParseDomainHeadings 测试 .uk 风格的标题段落
func TestParseDomainHeadings(t *testing.T) {
	rec := ParseDomain(fixture(t, "nominet_google.txt"), true)

	assert.Equal(t, "google.co.uk", rec.Get("Domain name"))
	assert.Equal(t, "google.co.uk", rec.Get("Domain Name"))
	assert.Equal(t, "Markmonitor Inc. t/a MarkMonitor Inc. [Tag = MARKMONITOR]", rec.Get("Registrar"))
	assert.Equal(t, "http://www.markmonitor.com", rec.Get("URL"))
	assert.Equal(t, []string{"ns1.google.com", "ns2.google.com"}, rec.Values("Name servers"))
	assert.Equal(t, []string{"ns1.google.com", "ns2.google.com"}, rec.Values("Name Server"))
	assert.Equal(t, "14-Feb-2026", rec.Get("Expiry Date"))
	assert.Equal(t, "14-Feb-1999", rec.Get("Created Date"))
	assert.True(t, rec.Has("Relevant dates"))
	assert.NotContains(t, rec.Values(types.TextField), "This WHOIS information is provided for free by Nominet UK the central registry")
}

func TestParseDomainFreeText(t *testing.T) {
	raw := "Domain Name: EXAMPLE.ORG\n\nThis is a free form notice\nspanning two lines\n"
	rec := ParseDomain(raw, true)

	require.True(t, rec.Has(types.TextField))
	assert.Equal(t, []string{"This is a free form notice", "spanning two lines"}, rec.Values(types.TextField))
	assert.Equal(t, "EXAMPLE.ORG", rec.Get("Domain Name"))
}

func TestParseDomainEmpty(t *testing.T) {
	assert.Empty(t, ParseDomain("", true))
}

func TestIsPrivacyField(t *testing.T) {
	assert.True(t, IsPrivacyField("Registrant Email"))
	assert.True(t, IsPrivacyField("tech phone ext"))
	assert.True(t, IsPrivacyField("Registry Admin ID"))
	assert.False(t, IsPrivacyField("Registrar"))
	assert.False(t, IsPrivacyField("Domain Name"))
}
