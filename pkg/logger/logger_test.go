package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWritesRotatedFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "whoisd.log")
	require.NoError(t, Init("production", file))

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-42")
	FromContext(ctx, "Whois").Infow("hop done", "server", "whois.iana.org")
	Module("Health").Debug("debug is filtered in production")
	Sync()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"msg":"hop done"`)
	assert.Contains(t, out, `"request_id":"req-42"`)
	assert.Contains(t, out, `"logger":"Whois"`)
	assert.Contains(t, out, `"level":"INFO"`)
	assert.NotContains(t, out, "debug is filtered")

	base, sugar, rotator = nil, nil, nil
}

func TestNopBeforeInit(t *testing.T) {
	base, sugar, rotator = nil, nil, nil

	assert.NotPanics(t, func() {
		Module("X").Info("ignored")
		Base().Info("ignored")
		FromContext(nil, "X").Info("ignored")
		Sync()
	})
}

func TestDeriveEnvironment(t *testing.T) {
	t.Setenv("GIN_MODE", "release")
	assert.Equal(t, "production", DeriveEnvironment())

	t.Setenv("GIN_MODE", "debug")
	assert.Equal(t, "dev", DeriveEnvironment())

	t.Setenv("GIN_MODE", "")
	t.Setenv("APP_ENV", "staging")
	assert.Equal(t, "staging", DeriveEnvironment())

	t.Setenv("APP_ENV", "")
	assert.Equal(t, "dev", DeriveEnvironment())
}
