// Package session speaks the replication protocol on top of a transport:
// handshake, dispatch of inbound envelopes, echo suppression, resync and
// outbound writes.
package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/zeusync/xebra/internal/core/events/bus"
	"github.com/zeusync/xebra/internal/core/graph"
	"github.com/zeusync/xebra/internal/core/observability/log"
	"github.com/zeusync/xebra/internal/core/protocol"
	"github.com/zeusync/xebra/internal/core/resource"
	"github.com/zeusync/xebra/internal/core/transport"
)

// Bus topic and events published by the session.
const (
	TopicSession = "session"

	EventConnection = "connection"
	EventReset      = "reset"
	EventLoaded     = "loaded"
	EventChannel    = "channel"
	EventIdentity   = "identity"
)

// Sender writes envelopes to the host. *transport.Transport satisfies it.
type Sender interface {
	Send(envs ...protocol.Envelope) error
}

type Config struct {
	// Name is reported to the host with set_client_params.
	Name string
	// Version is the protocol version sent at registration.
	Version string
}

func DefaultConfig() Config {
	return Config{
		Name:    "xebra-go",
		Version: "1.2.0",
	}
}

// Session feeds inbound messages into the graph and resource controller and
// turns local writes into outbound messages. It is not safe for concurrent
// use; the owning client serializes every call.
type Session struct {
	config    Config
	sender    Sender
	graph     *graph.Graph
	resources *resource.Controller
	bus       bus.EventBus
	logger    log.Log
	now       func() time.Time

	id        string
	xebraUUID string
	sequence  int64

	connectedOnce bool
	forceResync   bool
	loaded        bool
}

type Option func(*Session)

// WithClock replaces the timestamp source of outbound writes.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New binds a session to a graph and resource controller and installs itself
// as their outbound sink.
func New(config Config, sender Sender, g *graph.Graph, resources *resource.Controller, logger log.Log, opts ...Option) *Session {
	s := &Session{
		config:    config,
		sender:    sender,
		graph:     g,
		resources: resources,
		bus:       g.Bus(),
		now:       time.Now,
		id:        uuid.NewString(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logger.With(log.String("component", "session"), log.String("session", s.id))
	g.SetWriter(s)
	resources.SetRequester(s)
	return s
}

// ID is the locally generated identity used as the source of every write.
func (s *Session) ID() string { return s.id }

// XebraUUID is the identity assigned by the host, empty until set_uuid.
func (s *Session) XebraUUID() string { return s.xebraUUID }

// Sequence is the highest structural sequence seen so far.
func (s *Session) Sequence() int64 { return s.sequence }

// Loaded reports whether the last statedump has been replayed.
func (s *Session) Loaded() bool { return s.loaded }

// HandleState reacts to transport transitions. The first connection
// registers; every later one asks the host for a forced resync.
func (s *Session) HandleState(change transport.StateChange) {
	s.publish(EventConnection, change)
	if change.State != transport.StateConnected {
		return
	}

	if !s.connectedOnce {
		s.connectedOnce = true
		s.logger.Info("Connected, registering", log.Int("types", len(s.graph.Catalog())))
		s.send(protocol.MessageRegister, protocol.Register{
			UID:              s.id,
			Name:             s.config.Name,
			Version:          s.config.Version,
			SupportedObjects: s.graph.Catalog().SupportedObjects(),
		})
		s.RequestStateDump()
		return
	}

	s.logger.Info("Reconnected, requesting resync", log.Int64("sequence", s.sequence))
	s.forceResync = true
	s.send(protocol.MessageResync, protocol.Resync{Sequence: s.sequence})
}

// HandleFrame decodes one text frame and dispatches its envelopes in order.
func (s *Session) HandleFrame(data []byte) {
	envs, err := protocol.DecodeFrame(data)
	if err != nil {
		s.logger.Warn("Malformed frame dropped", log.Error(err))
		return
	}
	for _, env := range envs {
		s.Dispatch(env)
	}
}

// Dispatch applies one inbound envelope. Self-authored envelopes are dropped
// unless they carry structural adds or a statedump.
func (s *Session) Dispatch(env protocol.Envelope) {
	if src := env.Source(); src != "" && src == s.id {
		switch env.Message {
		case protocol.MessageAddNode, protocol.MessageAddParam, protocol.MessageStateDump:
		default:
			s.observeEcho(env)
			return
		}
	}
	s.apply(env)
}

func (s *Session) apply(env protocol.Envelope) {
	var err error
	switch env.Message {
	case protocol.MessageAddNode:
		err = s.handleAddNode(env)
	case protocol.MessageAddParam:
		err = s.handleAddParam(env)
	case protocol.MessageDeleteNode:
		err = s.handleDeleteNode(env)
	case protocol.MessageModifyNode:
		err = s.handleModifyNode(env)
	case protocol.MessageStateDump:
		err = s.handleStateDump(env)
	case protocol.MessageResync:
		err = s.handleResync(env)
	case protocol.MessageChannel:
		err = s.handleChannel(env)
	case protocol.MessageResourceInfoResult:
		err = s.handleResourceInfo(env)
	case protocol.MessageResourceDataResult:
		err = s.handleResourceData(env)
	case protocol.MessageSetUUID:
		err = s.handleSetUUID(env)
	default:
		s.logger.Debug("Unknown message ignored", log.String("message", env.Message.String()))
	}
	if err != nil {
		s.logger.Warn("Message dropped",
			log.String("message", env.Message.String()),
			log.Error(err))
	}
}

func (s *Session) handleAddNode(env protocol.Envelope) error {
	var m protocol.AddNode
	if err := env.Decode(&m); err != nil {
		return err
	}
	s.observe(m.Sequence)
	s.graph.AddEntity(graph.ID(m.ID), m.Type, m.Sequence, graph.ID(m.ParentID))
	return nil
}

func (s *Session) handleAddParam(env protocol.Envelope) error {
	var m protocol.AddNode
	if err := env.Decode(&m); err != nil {
		return err
	}
	s.observe(m.Sequence)
	s.graph.AddParameter(graph.ID(m.ParentID), graph.ID(m.ID), m.Type, m.Sequence)
	return nil
}

func (s *Session) handleDeleteNode(env protocol.Envelope) error {
	var m protocol.DeleteNode
	if err := env.Decode(&m); err != nil {
		return err
	}
	s.graph.DeleteEntity(graph.ID(m.ID))
	return nil
}

func (s *Session) handleModifyNode(env protocol.Envelope) error {
	var m protocol.ModifyNode
	if err := env.Decode(&m); err != nil {
		return err
	}
	s.observe(m.Sequence)
	s.graph.ModifyParameter(graph.ID(m.ID), m.Values, m.Types, m.Sequence)
	return nil
}

// handleStateDump replays every contained message, self-authored ones
// included, and marks the graph loaded.
func (s *Session) handleStateDump(env protocol.Envelope) error {
	var m protocol.StateDump
	if err := env.Decode(&m); err != nil {
		return err
	}
	for _, inner := range m.Messages {
		if inner.Message == protocol.MessageStateDump {
			continue
		}
		s.apply(inner)
	}
	s.loaded = true
	s.logger.Info("Statedump replayed",
		log.Int("messages", len(m.Messages)),
		log.Int("entities", s.graph.Len()),
		log.Int64("sequence", s.sequence),
		log.Uint64("digest", s.graph.Digest()))
	s.publish(EventLoaded, s.graph.Len())
	return nil
}

func (s *Session) handleResync(env protocol.Envelope) error {
	var m protocol.Resync
	if err := env.Decode(&m); err != nil {
		return err
	}
	if !s.forceResync && m.Sequence == s.sequence {
		s.logger.Debug("Resync check passed", log.Int64("sequence", m.Sequence))
		return nil
	}

	s.logger.Info("Resyncing",
		log.Int64("local", s.sequence),
		log.Int64("remote", m.Sequence),
		log.Bool("forced", s.forceResync))
	s.forceResync = false
	s.loaded = false
	s.publish(EventReset, m.Sequence)
	s.graph.Reset()
	s.resources.Reset()
	s.sequence = m.Sequence
	s.RequestStateDump()
	return nil
}

func (s *Session) handleChannel(env protocol.Envelope) error {
	var m protocol.ChannelMessage
	if err := env.Decode(&m); err != nil {
		return err
	}
	s.publish(EventChannel, m)
	return nil
}

func (s *Session) handleResourceInfo(env protocol.Envelope) error {
	var m protocol.ResourceInfoResult
	if err := env.Decode(&m); err != nil {
		return err
	}
	s.resources.HandleInfo(m)
	return nil
}

func (s *Session) handleResourceData(env protocol.Envelope) error {
	var m protocol.ResourceDataResult
	if err := env.Decode(&m); err != nil {
		return err
	}
	s.resources.HandleData(m)
	return nil
}

func (s *Session) handleSetUUID(env protocol.Envelope) error {
	var m protocol.SetUUID
	if err := env.Decode(&m); err != nil {
		return err
	}
	if m.UUID == "" {
		return errors.Wrap(protocol.ErrInvalidMessage, "empty uuid")
	}
	s.xebraUUID = m.UUID
	s.logger.Info("Identity assigned", log.String("xebra_uuid", m.UUID))
	s.send(protocol.MessageSetClientParams, protocol.SetClientParams{
		XebraUUID: m.UUID,
		Name:      s.config.Name,
		UID:       s.id,
	})
	s.publish(EventIdentity, m.UUID)
	return nil
}

// observeEcho keeps sequence bookkeeping for dropped self-authored messages.
func (s *Session) observeEcho(env protocol.Envelope) {
	var probe struct {
		Sequence int64 `json:"sequence"`
	}
	if env.Message == protocol.MessageModifyNode && env.Decode(&probe) == nil {
		s.observe(probe.Sequence)
	}
	s.logger.Debug("Echo suppressed", log.String("message", env.Message.String()))
}

func (s *Session) observe(seq int64) {
	if seq > s.sequence {
		s.sequence = seq
	}
}

// RequestStateDump asks the host for its full state.
func (s *Session) RequestStateDump() {
	s.send(protocol.MessageStateDump, nil)
}

// WriteParam sends a local parameter write. The graph calls it after every
// accepted local write.
func (s *Session) WriteParam(p *graph.Param) {
	s.send(protocol.MessageModifyNode, protocol.ModifyNode{
		ID:               protocol.NodeID(p.ID()),
		Values:           p.Values(),
		Types:            p.Types(),
		Sequence:         p.WriteSequence(),
		CreationSequence: p.CreationSequence(),
		Source:           s.id,
		Timestamp:        s.now().UnixMilli(),
	})
}

// SendChannelMessage broadcasts payload on channel. Values that cannot be
// represented on the wire are rejected before anything is sent; flat
// forbids nested lists and maps.
func (s *Session) SendChannelMessage(channel, name string, payload any, flat bool) error {
	coerced, err := protocol.CoerceChannelValue(payload, flat)
	if err != nil {
		return errors.Wrapf(err, "channel %q", channel)
	}
	env, err := protocol.NewEnvelope(protocol.MessageChannel, protocol.ChannelSend{
		Channel: channel,
		Name:    name,
		Payload: coerced,
	})
	if err != nil {
		return err
	}
	return s.sender.Send(env)
}

func (s *Session) RequestResourceInfo(req protocol.ResourceRequest) error {
	return s.sendErr(protocol.MessageGetResourceInfo, req)
}

func (s *Session) RequestResourceData(req protocol.ResourceRequest) error {
	return s.sendErr(protocol.MessageGetResourceData, req)
}

// send logs failures; callers on the dispatch path have nobody to return to.
func (s *Session) send(msgType protocol.MessageType, payload any) {
	if err := s.sendErr(msgType, payload); err != nil {
		s.logger.Error("Send failed",
			log.String("message", msgType.String()),
			log.Error(err))
	}
}

func (s *Session) sendErr(msgType protocol.MessageType, payload any) error {
	env, err := protocol.NewEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	return s.sender.Send(env)
}

func (s *Session) publish(eventType string, data any) {
	if err := s.bus.PublishToTopic(TopicSession, bus.NewEvent(eventType, "session", data)); err != nil {
		s.logger.Warn("Session listener failed",
			log.String("event", eventType),
			log.Error(err))
	}
}
