package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/xebra/internal/core/observability/log"
	"github.com/zeusync/xebra/internal/core/protocol"
)

// testServer upgrades every request. Connections listed in dropConns are
// closed right after the upgrade; the rest echo frames back.
type testServer struct {
	*httptest.Server
	upgrader  websocket.Upgrader
	accepted  atomic.Int32
	dropFirst int32
}

func newTestServer(t *testing.T, dropFirst int32) *testServer {
	s := &testServer{dropFirst: dropFirst}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func (s *testServer) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	if n := s.accepted.Add(1); n <= s.dropFirst {
		return
	}
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if err = conn.WriteMessage(mt, data); err != nil {
			return
		}
	}
}

func (s *testServer) wsURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

// countingDialer lets the first `allow` dials through and fails the rest.
type countingDialer struct {
	inner *websocket.Dialer
	allow int32
	dials atomic.Int32
}

func (d *countingDialer) DialContext(ctx context.Context, u string, h http.Header) (*websocket.Conn, *http.Response, error) {
	if d.dials.Add(1) > d.allow {
		return nil, nil, errors.New("dial refused")
	}
	return d.inner.DialContext(ctx, u, h)
}

type recorder struct {
	mu     sync.Mutex
	states []State
	ch     chan State
	frames chan []byte
}

func newRecorder(tr *Transport) *recorder {
	r := &recorder{ch: make(chan State, 64), frames: make(chan []byte, 64)}
	tr.OnState(func(c StateChange) {
		r.mu.Lock()
		r.states = append(r.states, c.State)
		r.mu.Unlock()
		r.ch <- c.State
	})
	tr.OnMessage(func(data []byte) { r.frames <- data })
	return r
}

func (r *recorder) waitFor(t *testing.T, want State) {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case s := <-r.ch:
			if s == want {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s, saw %v", want, r.snapshot())
		}
	}
}

func (r *recorder) snapshot() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

func testConfig(url string) Config {
	cfg := DefaultConfig()
	cfg.URL = url
	cfg.ReconnectDelay = 10 * time.Millisecond
	cfg.MaxReconnectAttempts = 3
	return cfg
}

func TestTransport_SendReceive(t *testing.T) {
	srv := newTestServer(t, 0)
	tr := New(testConfig(srv.wsURL()), log.NewNop())
	rec := newRecorder(tr)

	assert.ErrorIs(t, tr.Send(protocol.Envelope{}), ErrNotConnected)

	tr.Connect(context.Background())
	rec.waitFor(t, StateConnected)

	env, err := protocol.NewEnvelope(protocol.MessageResync, protocol.Resync{Sequence: 4})
	require.NoError(t, err)
	require.NoError(t, tr.Send(env))

	select {
	case data := <-rec.frames:
		assert.JSONEq(t, `{"message":"resync","payload":{"sequence":4}}`, string(data))
	case <-time.After(5 * time.Second):
		t.Fatal("echo not received")
	}

	require.NoError(t, tr.Close())
	rec.waitFor(t, StateDisconnected)
	<-tr.Done()

	assert.Equal(t, []State{StateConnecting, StateConnected, StateDisconnected}, rec.snapshot())
}

func TestTransport_FirstAttemptFailureIsTerminal(t *testing.T) {
	dialer := &countingDialer{inner: websocket.DefaultDialer, allow: 0}
	tr := New(testConfig("ws://127.0.0.1:1"), log.NewNop(), WithDialer(dialer))
	rec := newRecorder(tr)

	tr.Connect(context.Background())
	<-tr.Done()

	assert.Equal(t, []State{StateConnecting, StateDisconnected}, rec.snapshot())
	assert.Equal(t, int32(1), dialer.dials.Load())
	assert.Equal(t, StateDisconnected, tr.State())
}

func TestTransport_ReconnectAttemptsExhausted(t *testing.T) {
	srv := newTestServer(t, 1)
	dialer := &countingDialer{inner: websocket.DefaultDialer, allow: 1}
	tr := New(testConfig(srv.wsURL()), log.NewNop(), WithDialer(dialer))
	rec := newRecorder(tr)

	tr.Connect(context.Background())
	select {
	case <-tr.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("transport did not give up")
	}

	assert.Equal(t, []State{StateConnecting, StateConnected, StateReconnecting, StateDisconnected}, rec.snapshot())
	assert.Equal(t, int32(1+3), dialer.dials.Load())

	// no further attempts once disconnected
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(4), dialer.dials.Load())
}

func TestTransport_ReconnectSucceeds(t *testing.T) {
	srv := newTestServer(t, 1)
	tr := New(testConfig(srv.wsURL()), log.NewNop())
	rec := newRecorder(tr)

	tr.Connect(context.Background())
	rec.waitFor(t, StateConnected)
	rec.waitFor(t, StateReconnecting)
	rec.waitFor(t, StateConnected)

	require.NoError(t, tr.Close())
	<-tr.Done()

	assert.Equal(t, []State{
		StateConnecting, StateConnected, StateReconnecting, StateConnected, StateDisconnected,
	}, rec.snapshot())
}

func TestTransport_ConnectIsNoOpWhileRunning(t *testing.T) {
	srv := newTestServer(t, 0)
	dialer := &countingDialer{inner: websocket.DefaultDialer, allow: 10}
	tr := New(testConfig(srv.wsURL()), log.NewNop(), WithDialer(dialer))
	rec := newRecorder(tr)

	tr.Connect(context.Background())
	rec.waitFor(t, StateConnected)
	tr.Connect(context.Background())

	require.NoError(t, tr.Close())
	<-tr.Done()
	assert.Equal(t, int32(1), dialer.dials.Load())
}

func TestTransport_ContextCancelDisconnects(t *testing.T) {
	srv := newTestServer(t, 0)
	tr := New(testConfig(srv.wsURL()), log.NewNop())
	rec := newRecorder(tr)

	ctx, cancel := context.WithCancel(context.Background())
	tr.Connect(ctx)
	rec.waitFor(t, StateConnected)
	cancel()

	select {
	case <-tr.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("transport did not stop on context cancel")
	}
	assert.Equal(t, StateDisconnected, tr.State())
	assert.NotContains(t, rec.snapshot(), StateReconnecting)
}
