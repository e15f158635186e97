package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "xebra.yaml", `
client:
  name: stage-left
transport:
  url: ws://10.0.0.5:8086
  reconnect_delay: 250ms
  max_reconnect_attempts: 3
logging:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "stage-left", cfg.Client.Name)
	assert.Equal(t, "1.2.0", cfg.Client.ProtocolVersion)
	assert.Equal(t, "ws://10.0.0.5:8086", cfg.Transport.URL)
	assert.Equal(t, 250*time.Millisecond, cfg.Transport.ReconnectDelay)
	assert.Equal(t, 5*time.Second, cfg.Transport.HandshakeTimeout)

	tc := cfg.TransportConfig()
	assert.Equal(t, 3, tc.MaxReconnectAttempts)
	assert.Equal(t, "debug", cfg.LogConfig().Level)
	assert.Equal(t, "stage-left", cfg.SessionConfig().Name)
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "xebra.toml", `
[transport]
url = "ws://host:9000"
write_timeout = "2s"

[logging]
format = "console"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ws://host:9000", cfg.Transport.URL)
	assert.Equal(t, 2*time.Second, cfg.Transport.WriteTimeout)
	assert.Equal(t, 10, cfg.Transport.MaxReconnectAttempts)
	assert.Equal(t, "xebra-go", cfg.Client.Name)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "xebra.json", `{}`))
	assert.ErrorContains(t, err, "unsupported format")

	_, err = Load(writeFile(t, "bad.yaml", "transport: [oops"))
	assert.ErrorContains(t, err, "parse config")

	_, err = Load(writeFile(t, "empty-url.yaml", "transport:\n  url: \"\"\n"))
	assert.ErrorContains(t, err, "transport.url")

	_, err = Load(writeFile(t, "fmt.toml", "[logging]\nformat = \"xml\"\n"))
	assert.ErrorContains(t, err, "logging.format")
}
