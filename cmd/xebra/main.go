package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/docopt/docopt-go"
	"golang.org/x/sync/errgroup"

	"github.com/zeusync/xebra/internal/config"
	"github.com/zeusync/xebra/internal/core/events/bus"
	"github.com/zeusync/xebra/internal/core/graph"
	"github.com/zeusync/xebra/internal/core/observability/log"
	"github.com/zeusync/xebra/internal/core/session"
	"github.com/zeusync/xebra/internal/core/transport"
	"github.com/zeusync/xebra/internal/injector"
	"github.com/zeusync/xebra/sdk/go/client"
)

const Version = "0.1.0"

const usage = `Xebra mirror.

Connects to a live-patching host, mirrors its object graph and logs what
happens to it until interrupted.

Usage:
    xebra [--url=<url>] [--config=<path>] [--name=<name>] [--log-level=<level>]
    xebra -h | --help
    xebra --version

Options:
    -h --help             Show this screen.
    --version             Show version.
    --url=<url>           Host websocket url, overrides the config file.
    --config=<path>       YAML or TOML configuration file.
    --name=<name>         Client name reported to the host.
    --log-level=<level>   debug, info, warn or error.
`

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], Version)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error parsing arguments:", err)
		os.Exit(2)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(1)
	}

	// ProvideLogger hands out the process logger, so the watcher and the
	// client log through one instance.
	logger := injector.ProvideLogger(cfg)
	c := injector.InitializeClientFromConfig(cfg)
	if err := watch(c, logger); err != nil {
		logger.Error("Failed to subscribe", log.Error(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		if err := c.Close(); err != nil && !errors.Is(err, client.ErrClientClosed) {
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Mirror stopped", log.Error(err))
		os.Exit(1)
	}
	logger.Info("Mirror stopped")
}

func loadConfig(opts docopt.Opts) (*config.Config, error) {
	cfg := config.Default()
	if path, _ := opts.String("--config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if url, _ := opts.String("--url"); url != "" {
		cfg.Transport.URL = url
	}
	if name, _ := opts.String("--name"); name != "" {
		cfg.Client.Name = name
	}
	if level, _ := opts.String("--log-level"); level != "" {
		cfg.Logging.Level = level
	}
	return cfg, cfg.Validate()
}

// watch logs connection, resync and graph activity.
func watch(c *client.Client, logger log.Log) error {
	entity := func(e bus.Event) (graph.Entity, bool) {
		ch, ok := e.Data().(graph.Change)
		return ch.Entity, ok && ch.Entity != nil
	}

	subs := []struct {
		topic, event string
		fn           bus.EventHandler
	}{
		{session.TopicSession, session.EventConnection, func(e bus.Event) error {
			if ch, ok := e.Data().(transport.StateChange); ok {
				logger.Info("Connection", log.String("state", ch.State.String()), log.Int("attempt", ch.Attempt))
			}
			return nil
		}},
		{session.TopicSession, session.EventReset, func(e bus.Event) error {
			logger.Info("Host state reset", log.Any("sequence", e.Data()))
			return nil
		}},
		{session.TopicSession, session.EventLoaded, func(e bus.Event) error {
			logger.Info("Graph loaded", log.Any("entities", e.Data()))
			return nil
		}},
		{session.TopicSession, session.EventChannel, func(e bus.Event) error {
			logger.Info("Channel message", log.Any("message", e.Data()))
			return nil
		}},
		{graph.TopicContainer, graph.EventAdded, func(e bus.Event) error {
			if ent, ok := entity(e); ok {
				logger.Info("Patcher added", log.Int64("id", int64(ent.ID())))
			}
			return nil
		}},
		{graph.TopicContainer, graph.EventRemoved, func(e bus.Event) error {
			if ent, ok := entity(e); ok {
				logger.Info("Patcher removed", log.Int64("id", int64(ent.ID())))
			}
			return nil
		}},
		{graph.TopicObject, graph.EventAdded, func(e bus.Event) error {
			if ent, ok := entity(e); ok {
				logger.Debug("Object added", log.Int64("id", int64(ent.ID())), log.String("type", ent.Type()))
			}
			return nil
		}},
		{graph.TopicObject, graph.EventRemoved, func(e bus.Event) error {
			if ent, ok := entity(e); ok {
				logger.Debug("Object removed", log.Int64("id", int64(ent.ID())))
			}
			return nil
		}},
	}
	for _, s := range subs {
		if _, err := c.Subscribe(s.topic, s.event, s.fn); err != nil {
			return err
		}
	}
	return nil
}
