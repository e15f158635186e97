package transport

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/zeusync/xebra/internal/core/observability/log"
	"github.com/zeusync/xebra/internal/core/protocol"
)

// Dialer opens websocket connections. *websocket.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, urlStr string, requestHeader http.Header) (*websocket.Conn, *http.Response, error)
}

// Transport owns one websocket connection to a single endpoint and keeps it
// alive with a bounded number of fixed-delay reconnect attempts. Messages are
// never retried; only the connection is.
//
// State and frame callbacks are invoked from the transport's own goroutine,
// one at a time, in the order the events happened.
type Transport struct {
	config Config
	dialer Dialer
	logger log.Log

	mu         sync.Mutex
	state      State
	conn       *websocket.Conn
	running    bool
	userClosed bool
	cancel     context.CancelFunc
	done       chan struct{}

	onState func(StateChange)
	onFrame func([]byte)

	writeMu sync.Mutex
}

type Option func(*Transport)

// WithDialer replaces the default gorilla dialer.
func WithDialer(d Dialer) Option {
	return func(t *Transport) { t.dialer = d }
}

// New creates a transport in StateInit. Nothing is dialed until Connect.
func New(config Config, logger log.Log, opts ...Option) *Transport {
	t := &Transport{
		config: config,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: config.HandshakeTimeout,
		},
		logger: logger.With(log.String("component", "transport"), log.String("url", config.URL)),
		state:  StateInit,
		done:   make(chan struct{}),
	}
	close(t.done)
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// OnState sets the callback for state transitions. Set it before Connect.
func (t *Transport) OnState(callback func(StateChange)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onState = callback
}

// OnMessage sets the callback for inbound frames. Set it before Connect.
func (t *Transport) OnMessage(callback func([]byte)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onFrame = callback
}

// State returns the current connection state.
func (t *Transport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Done is closed once the transport settles in StateDisconnected.
func (t *Transport) Done() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

// Connect starts connecting unless the transport is already running. It does
// not wait for the socket to open; watch OnState for the outcome.
func (t *Transport) Connect(ctx context.Context) {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	t.running = true
	t.userClosed = false
	t.cancel = cancel
	t.done = make(chan struct{})
	done := t.done
	t.mu.Unlock()

	go t.run(runCtx, done)
}

// Close tears the connection down. The close counts as user-initiated, so no
// reconnect follows.
func (t *Transport) Close() error {
	t.mu.Lock()
	t.userClosed = true
	conn := t.conn
	cancel := t.cancel
	running := t.running
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		t.writeMu.Lock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client closed")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		t.writeMu.Unlock()
		_ = conn.Close()
	}
	if !running {
		t.setState(StateDisconnected, 0, ErrClosed)
	}
	return nil
}

// Send serializes envelopes into one text frame and writes it. A write error
// drops the connection, which the reconnect logic then handles like any
// other unexpected close.
func (t *Transport) Send(envs ...protocol.Envelope) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	data, err := protocol.EncodeFrame(envs...)
	if err != nil {
		return err
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if t.config.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(t.config.WriteTimeout))
	}
	if err = conn.WriteMessage(websocket.TextMessage, data); err != nil {
		_ = conn.Close()
		return errors.Wrap(err, "failed to write frame")
	}
	return nil
}

func (t *Transport) run(ctx context.Context, done chan struct{}) {
	defer func() {
		t.mu.Lock()
		t.running = false
		t.cancel = nil
		t.mu.Unlock()
		close(done)
	}()

	connected := false
	attempt := 0
	t.setState(StateConnecting, 0, nil)

	for {
		conn, err := t.dial(ctx)
		if err == nil {
			if !t.attach(conn) {
				_ = conn.Close()
				t.setState(StateDisconnected, 0, nil)
				return
			}
			connected = true
			attempt = 0
			t.setState(StateConnected, 0, nil)
			t.logger.Info("Connected")

			stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
			err = t.readLoop(conn)
			stop()
			t.detach()
			if t.closing(ctx) {
				t.setState(StateDisconnected, 0, nil)
				t.logger.Info("Disconnected")
				return
			}
			t.logger.Warn("Connection lost", log.Error(err))
			t.setState(StateReconnecting, 0, err)
		} else {
			if t.closing(ctx) {
				t.setState(StateDisconnected, attempt, nil)
				return
			}
			if !connected {
				t.logger.Warn("Initial connection failed", log.Error(err))
				t.setState(StateDisconnected, 0, err)
				return
			}
			t.logger.Warn("Reconnection failed", log.Int("attempt", attempt), log.Error(err))
		}

		if attempt >= t.config.MaxReconnectAttempts {
			t.logger.Error("Reconnect attempts exhausted", log.Int("attempts", attempt))
			t.setState(StateDisconnected, attempt, err)
			return
		}
		attempt++

		timer := time.NewTimer(t.config.ReconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			t.setState(StateDisconnected, attempt, nil)
			return
		case <-timer.C:
		}
		t.logger.Info("Reconnection attempt", log.Int("attempt", attempt))
	}
}

func (t *Transport) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx := ctx
	if t.config.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, t.config.HandshakeTimeout)
		defer cancel()
	}
	conn, resp, err := t.dialer.DialContext(dialCtx, t.config.URL, t.config.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, errors.Wrap(err, "dial")
	}
	return conn, nil
}

func (t *Transport) readLoop(conn *websocket.Conn) error {
	if t.config.ReadLimit > 0 {
		conn.SetReadLimit(t.config.ReadLimit)
	}
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			return errors.Wrap(err, "read")
		}
		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}
		t.mu.Lock()
		onFrame := t.onFrame
		t.mu.Unlock()
		if onFrame != nil {
			onFrame(data)
		}
	}
}

func (t *Transport) attach(conn *websocket.Conn) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.userClosed {
		return false
	}
	t.conn = conn
	return true
}

func (t *Transport) detach() {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

func (t *Transport) closing(ctx context.Context) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.userClosed || ctx.Err() != nil
}

func (t *Transport) setState(state State, attempt int, err error) {
	t.mu.Lock()
	prev := t.state
	if prev == state {
		t.mu.Unlock()
		return
	}
	t.state = state
	onState := t.onState
	t.mu.Unlock()

	t.logger.Debug("State changed",
		log.String("from", prev.String()),
		log.String("to", state.String()))

	if onState != nil {
		onState(StateChange{State: state, Previous: prev, Attempt: attempt, Err: err})
	}
}
