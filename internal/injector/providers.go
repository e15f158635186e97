package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/xebra/internal/config"
	"github.com/zeusync/xebra/internal/core/observability/log"
	"github.com/zeusync/xebra/sdk/go/client"
)

var ProviderSet = wire.NewSet(ProvideLogger, ProvideClientConfig, ProvideClient)

// ProvideLogger returns the process logger, built from the logging section
// on first use. The CLI and the client share it.
func ProvideLogger(cfg *config.Config) log.Log {
	return log.Provide(cfg.LogConfig())
}

func ProvideClientConfig(cfg *config.Config) client.Config {
	cc := client.DefaultClientConfig()
	cc.Transport = cfg.TransportConfig()
	cc.Session = cfg.SessionConfig()
	cc.QueueSize = cfg.Client.QueueSize
	cc.LogLevel = log.ParseLevel(cfg.Logging.Level)
	return cc
}

func ProvideClient(cc client.Config, logger log.Log) *client.Client {
	return client.NewClient(cc, client.WithLogger(logger))
}
