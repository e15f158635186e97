// Package config loads the client configuration from a YAML or TOML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/xebra/internal/core/observability/log"
	"github.com/zeusync/xebra/internal/core/session"
	"github.com/zeusync/xebra/internal/core/transport"
)

type Config struct {
	Client    ClientConfig    `yaml:"client" toml:"client"`
	Transport TransportConfig `yaml:"transport" toml:"transport"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
}

type ClientConfig struct {
	Name            string `yaml:"name" toml:"name"`
	ProtocolVersion string `yaml:"protocol_version" toml:"protocol_version"`
	QueueSize       int    `yaml:"queue_size" toml:"queue_size"`
}

type TransportConfig struct {
	URL                  string        `yaml:"url" toml:"url"`
	HandshakeTimeout     time.Duration `yaml:"handshake_timeout" toml:"handshake_timeout"`
	WriteTimeout         time.Duration `yaml:"write_timeout" toml:"write_timeout"`
	ReadLimit            int64         `yaml:"read_limit" toml:"read_limit"`
	ReconnectDelay       time.Duration `yaml:"reconnect_delay" toml:"reconnect_delay"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts" toml:"max_reconnect_attempts"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"` // "json" or "console"
}

// Load reads path over the defaults. The format follows the extension:
// .yaml/.yml or .toml.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("config %s: unsupported format %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func Default() *Config {
	tc := transport.DefaultConfig()
	sc := session.DefaultConfig()
	return &Config{
		Client: ClientConfig{
			Name:            sc.Name,
			ProtocolVersion: sc.Version,
			QueueSize:       256,
		},
		Transport: TransportConfig{
			URL:                  tc.URL,
			HandshakeTimeout:     tc.HandshakeTimeout,
			WriteTimeout:         tc.WriteTimeout,
			ReadLimit:            tc.ReadLimit,
			ReconnectDelay:       tc.ReconnectDelay,
			MaxReconnectAttempts: tc.MaxReconnectAttempts,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func (c *Config) Validate() error {
	switch {
	case c.Transport.URL == "":
		return fmt.Errorf("transport.url is required")
	case c.Transport.MaxReconnectAttempts < 0:
		return fmt.Errorf("transport.max_reconnect_attempts must not be negative")
	case c.Client.QueueSize <= 0:
		return fmt.Errorf("client.queue_size must be positive")
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// TransportConfig converts the file section into the transport's own config.
func (c *Config) TransportConfig() transport.Config {
	tc := transport.DefaultConfig()
	tc.URL = c.Transport.URL
	tc.HandshakeTimeout = c.Transport.HandshakeTimeout
	tc.WriteTimeout = c.Transport.WriteTimeout
	tc.ReadLimit = c.Transport.ReadLimit
	tc.ReconnectDelay = c.Transport.ReconnectDelay
	tc.MaxReconnectAttempts = c.Transport.MaxReconnectAttempts
	return tc
}

func (c *Config) SessionConfig() session.Config {
	return session.Config{
		Name:    c.Client.Name,
		Version: c.Client.ProtocolVersion,
	}
}

func (c *Config) LogConfig() log.Config {
	return log.Config{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
	}
}
