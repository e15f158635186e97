// Package client provides the public SDK: a live mirror of a remote patch
// graph kept in sync over one websocket connection.
package client

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/xebra/internal/core/catalog"
	"github.com/zeusync/xebra/internal/core/events/bus"
	"github.com/zeusync/xebra/internal/core/graph"
	"github.com/zeusync/xebra/internal/core/observability/log"
	"github.com/zeusync/xebra/internal/core/resource"
	"github.com/zeusync/xebra/internal/core/session"
	"github.com/zeusync/xebra/internal/core/transport"
	"github.com/zeusync/xebra/internal/core/view"
)

// Client owns the transport, session, graph, resources and view assignment.
// Every graph access runs on a single loop goroutine; callers reach the graph
// through Do and event handlers.
type Client struct {
	config Config
	logger log.Log

	bus       bus.EventBus
	graph     *graph.Graph
	resources *resource.Controller
	session   *session.Session
	transport *transport.Transport
	view      *view.Assigner

	tasks chan func()

	running int32 // atomic bool
	closed  int32 // atomic bool

	mu       sync.Mutex
	cancel   context.CancelFunc
	loopDone chan struct{}
}

// Config holds configuration for the client
type Config struct {
	Transport transport.Config
	Session   session.Config

	// QueueSize bounds the number of pending inbound frames and calls.
	QueueSize int
	LogLevel  log.Level
}

// DefaultClientConfig returns default client configuration
func DefaultClientConfig() Config {
	return Config{
		Transport: transport.DefaultConfig(),
		Session:   session.DefaultConfig(),
		QueueSize: 256,
		LogLevel:  log.LevelInfo,
	}
}

type options struct {
	logger  log.Log
	dialer  transport.Dialer
	catalog func(*resource.Controller) graph.Catalog
}

type Option func(*options)

func WithLogger(logger log.Log) Option {
	return func(o *options) { o.logger = logger }
}

// WithDialer replaces the websocket dialer, mainly for tests.
func WithDialer(d transport.Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// WithCatalog replaces the default type catalog.
func WithCatalog(build func(*resource.Controller) graph.Catalog) Option {
	return func(o *options) { o.catalog = build }
}

// NewClient wires a client together. Nothing connects until Run.
func NewClient(config Config, opts ...Option) *Client {
	o := options{catalog: catalog.Default}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.New(config.LogLevel)
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultClientConfig().QueueSize
	}

	c := &Client{
		config: config,
		logger: o.logger.With(log.String("component", "client")),
		bus:    bus.New(),
		tasks:  make(chan func(), config.QueueSize),
	}

	c.resources = resource.NewController(nil, c.bus, o.logger)
	c.graph = graph.New(o.catalog(c.resources), o.logger, graph.WithBus(c.bus))

	var topts []transport.Option
	if o.dialer != nil {
		topts = append(topts, transport.WithDialer(o.dialer))
	}
	c.transport = transport.New(config.Transport, o.logger, topts...)
	c.session = session.New(config.Session, c.transport, c.graph, c.resources, o.logger)
	c.view = view.New(c.graph, o.logger)

	c.transport.OnState(func(change transport.StateChange) {
		c.enqueue(func() { c.session.HandleState(change) })
	})
	c.transport.OnMessage(func(data []byte) {
		c.enqueue(func() { c.session.HandleFrame(data) })
	})

	c.logger.Info("Client created",
		log.String("client_id", c.session.ID()),
		log.String("url", config.Transport.URL))
	return c
}

// ID is the local session identity.
func (c *Client) ID() string { return c.session.ID() }

// State is the current connection state.
func (c *Client) State() transport.State { return c.transport.State() }

// Run connects and processes inbound messages and calls until ctx ends or
// Close is called, both of which return nil. It returns ErrDisconnected when
// the connection is lost for good.
func (c *Client) Run(ctx context.Context) error {
	if atomic.LoadInt32(&c.closed) == 1 {
		return ErrClientClosed
	}
	if !atomic.CompareAndSwapInt32(&c.running, 0, 1) {
		return ErrAlreadyRunning
	}
	defer atomic.StoreInt32(&c.running, 0)

	if err := c.view.Start(); err != nil {
		return err
	}
	defer c.view.Stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	loopDone := make(chan struct{})
	c.mu.Lock()
	c.cancel = cancel
	c.loopDone = loopDone
	c.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(loopDone)
		c.loop(gctx)
		return nil
	})
	g.Go(func() error {
		c.transport.Connect(gctx)
		<-c.transport.Done()
		if gctx.Err() != nil || atomic.LoadInt32(&c.closed) == 1 {
			return nil
		}
		c.logger.Error("Connection closed for good")
		return ErrDisconnected
	})
	return g.Wait()
}

// Close disconnects and stops Run. The client cannot be run again.
func (c *Client) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return ErrClientClosed
	}
	c.logger.Info("Closing client")
	err := c.transport.Close()
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()
	return err
}

// Do runs fn on the loop goroutine with exclusive access to the graph and
// waits for it to finish.
func (c *Client) Do(ctx context.Context, fn func(g *graph.Graph) error) error {
	c.mu.Lock()
	loopDone := c.loopDone
	c.mu.Unlock()
	if loopDone == nil || atomic.LoadInt32(&c.running) == 0 {
		return ErrNotRunning
	}

	result := make(chan error, 1)
	task := func() { result <- fn(c.graph) }
	select {
	case c.tasks <- task:
	case <-loopDone:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-result:
		return err
	case <-loopDone:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetParamValue writes a parameter of an object through its write entry point.
func (c *Client) SetParamValue(ctx context.Context, objectID graph.ID, name string, value any) error {
	return c.Do(ctx, func(g *graph.Graph) error {
		return g.SetParamValue(objectID, name, value)
	})
}

// SendChannelMessage broadcasts payload on a named channel under the
// client's name.
func (c *Client) SendChannelMessage(ctx context.Context, channel string, payload any, flat bool) error {
	return c.Do(ctx, func(*graph.Graph) error {
		return c.session.SendChannelMessage(channel, c.config.Session.Name, payload, flat)
	})
}

// CreateResource registers a free-standing resource and points it at filename.
func (c *Client) CreateResource(ctx context.Context, filename string, width, height int) (string, error) {
	var id string
	err := c.Do(ctx, func(*graph.Graph) error {
		r := c.resources.Create(graph.RootID)
		r.SetDimensions(width, height)
		r.SetFilename(filename)
		id = r.ID()
		return nil
	})
	return id, err
}

// Subscribe registers a handler for graph, session or resource events.
// Handlers run on the loop goroutine and may read the graph directly.
func (c *Client) Subscribe(topic, eventType string, handler bus.EventHandler) (bus.Subscription, error) {
	return c.bus.SubscribeTopic(topic, eventType, handler)
}

func (c *Client) loop(ctx context.Context) {
	for {
		select {
		case task := <-c.tasks:
			c.execute(task)
		case <-ctx.Done():
			c.drain()
			return
		}
	}
}

// drain runs what is already queued so the final state change is not lost.
func (c *Client) drain() {
	for {
		select {
		case task := <-c.tasks:
			c.execute(task)
		default:
			return
		}
	}
}

func (c *Client) execute(task func()) {
	start := time.Now()
	task()
	if d := time.Since(start); d > 100*time.Millisecond {
		c.logger.Warn("Slow task on client loop", log.Duration("duration", d))
	}
}

// enqueue hands work to the loop. Work arriving after the loop is gone is
// dropped.
func (c *Client) enqueue(task func()) {
	c.mu.Lock()
	loopDone := c.loopDone
	c.mu.Unlock()
	if loopDone == nil {
		return
	}
	select {
	case c.tasks <- task:
	case <-loopDone:
	}
}
