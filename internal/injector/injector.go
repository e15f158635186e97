//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/xebra/internal/config"
	"github.com/zeusync/xebra/sdk/go/client"
)

// InitializeClient builds a client from a configuration file.
func InitializeClient(path string) (*client.Client, error) {
	wire.Build(config.Load, ProviderSet)
	return nil, nil
}

// InitializeClientFromConfig builds a client from an already loaded config.
func InitializeClientFromConfig(cfg *config.Config) *client.Client {
	wire.Build(ProviderSet)
	return nil
}
