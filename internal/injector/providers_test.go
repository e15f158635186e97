package injector

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/xebra/internal/config"
	"github.com/zeusync/xebra/internal/core/observability/log"
)

func TestProvideClientConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Transport.URL = "ws://mixer:8086"
	cfg.Transport.ReconnectDelay = 3 * time.Second
	cfg.Client.Name = "foh"
	cfg.Logging.Level = "warn"

	cc := ProvideClientConfig(cfg)
	assert.Equal(t, "ws://mixer:8086", cc.Transport.URL)
	assert.Equal(t, 3*time.Second, cc.Transport.ReconnectDelay)
	assert.Equal(t, "foh", cc.Session.Name)
	assert.Equal(t, log.LevelWarn, cc.LogLevel)
}

func TestProvideLoggerShared(t *testing.T) {
	first := ProvideLogger(config.Default())
	cfg := config.Default()
	cfg.Logging.Format = "console"
	assert.Same(t, first, ProvideLogger(cfg))
}

func TestInitializeClient(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xebra.yaml")
	require.NoError(t, os.WriteFile(path, []byte("client:\n  name: booth\n"), 0o600))

	c, err := InitializeClient(path)
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID())

	_, err = InitializeClient(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
