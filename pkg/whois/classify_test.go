package whois

import (
	"errors"
	"testing"

	"whoisd/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestClassify 测试查询类型识别的优先级：IP > ASN > TLD > 域名
func TestClassify(t *testing.T) {
	tests := []struct {
		query string
		want  types.QueryKind
	}{
		{"1.1.1.1", types.KindIP},
		{"2606:4700:4700::1111", types.KindIP},
		{"15169", types.KindASN},
		{"AS13335", types.KindASN},
		{"as3333", types.KindASN},
		{"com", types.KindTLD},
		{".com", types.KindTLD},
		{"COM", types.KindTLD},
		{"xn--p1ai", types.KindTLD},
		{"рф", types.KindTLD},
		{"google.com", types.KindDomain},
		{"GOOGLE.COM", types.KindDomain},
		{"www.google.co.uk", types.KindDomain},
		{"münchen.de", types.KindDomain},
		{"example.com.", types.KindDomain},
		{" google.com ", types.KindDomain},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := Classify(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyUnrecognized(t *testing.T) {
	for _, q := range []string{"", "not a query", "-bad-.com", "a", "foo..com", "exa_mple.com", "1.1.1.1/24"} {
		t.Run(q, func(t *testing.T) {
			_, err := Classify(q)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnrecognizedQuery))

			var qe *QueryError
			require.ErrorAs(t, err, &qe)
			assert.Equal(t, q, qe.Query)
			assert.Contains(t, err.Error(), "Unrecognized query")
		})
	}
}

func TestNormalizeASN(t *testing.T) {
	assert.Equal(t, "13335", normalizeASN("AS13335"))
	assert.Equal(t, "13335", normalizeASN("as13335"))
	assert.Equal(t, "15169", normalizeASN("15169"))
}

func TestIDNConversion(t *testing.T) {
	assert.Equal(t, "xn--mnchen-3ya.de", ToASCII("München.de"))
	assert.Equal(t, "münchen.de", ToUnicode("xn--mnchen-3ya.de"))
	assert.Equal(t, "com", normalizeTLD(".COM"))
}
