package protocol

import (
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
)

// MessageType is the "message" field of a wire envelope.
type MessageType string

// Inbound message types.
const (
	MessageAddNode            MessageType = "add_node"
	MessageAddParam           MessageType = "add_param"
	MessageDeleteNode         MessageType = "delete_node"
	MessageModifyNode         MessageType = "modify_node"
	MessageStateDump          MessageType = "statedump"
	MessageResync             MessageType = "resync"
	MessageChannel            MessageType = "channel_message"
	MessageResourceInfoResult MessageType = "handle_resource_info"
	MessageResourceDataResult MessageType = "handle_resource_data"
	MessageSetUUID            MessageType = "set_uuid"
)

// Outbound message types not shared with the inbound set.
const (
	MessageRegister        MessageType = "register"
	MessageSetClientParams MessageType = "set_client_params"
	MessageGetResourceInfo MessageType = "get_resource_info"
	MessageGetResourceData MessageType = "get_resource_data"
)

func (t MessageType) String() string { return string(t) }

// Envelope is one unit of the wire protocol. A frame carries either a single
// envelope or an ordered array of them.
type Envelope struct {
	Message MessageType     `json:"message"`
	Payload json.RawMessage `json:"payload"`
}

// NewEnvelope marshals payload into an envelope. A nil payload becomes {}.
func NewEnvelope(msgType MessageType, payload any) (Envelope, error) {
	if payload == nil {
		return Envelope{Message: msgType, Payload: json.RawMessage("{}")}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, errors.Wrapf(ErrSerializationFailed, "%s: %v", msgType, err)
	}
	return Envelope{Message: msgType, Payload: data}, nil
}

// Decode unmarshals the payload into v.
func (e Envelope) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return errors.Wrapf(ErrDeserializationFailed, "%s: %v", e.Message, err)
	}
	return nil
}

// NodeID is an entity id as carried on the wire. Hosts send integers; numeric
// strings are accepted as well.
type NodeID int64

func (id *NodeID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return errors.Errorf("node id %q is not numeric", s)
		}
		*id = NodeID(n)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = NodeID(n)
	return nil
}

// AddNode is the payload of add_node and add_param.
type AddNode struct {
	ID       NodeID `json:"id"`
	Type     string `json:"type"`
	Sequence int64  `json:"sequence"`
	ParentID NodeID `json:"parent_id"`
}

type DeleteNode struct {
	ID NodeID `json:"id"`
}

// ModifyNode carries a parameter value change in either direction.
type ModifyNode struct {
	ID               NodeID     `json:"id"`
	Values           []any      `json:"values"`
	Types            []WireType `json:"types"`
	Sequence         int64      `json:"sequence"`
	CreationSequence int64      `json:"creation_sequence,omitempty"`
	Source           string     `json:"source,omitempty"`
	Timestamp        int64      `json:"timestamp"`
}

type StateDump struct {
	Messages []Envelope `json:"messages"`
}

type Resync struct {
	Sequence int64 `json:"sequence"`
}

// ChannelMessage is an inbound broadcast on a named channel.
type ChannelMessage struct {
	Channel string `json:"channel"`
	Message any    `json:"message"`
}

// ChannelSend is an outbound broadcast. Payload must already be coerced.
type ChannelSend struct {
	Channel string `json:"channel"`
	Name    string `json:"name"`
	Payload any    `json:"payload"`
}

type SetUUID struct {
	UUID string `json:"uuid"`
}

type SetClientParams struct {
	XebraUUID string `json:"xebraUuid"`
	Name      string `json:"name"`
	UID       string `json:"uid"`
}

// Register declares the client identity and the parameters it wants
// synchronized per object type.
type Register struct {
	UID              string              `json:"uid"`
	Name             string              `json:"name,omitempty"`
	Version          string              `json:"version"`
	SupportedObjects map[string][]string `json:"supported_objects"`
}

// ResourceRequest is sent with get_resource_info/get_resource_data and echoed
// back by the host inside the matching reply.
type ResourceRequest struct {
	Sequence int64  `json:"sequence"`
	Context  string `json:"context,omitempty"`
	Name     string `json:"name,omitempty"`
	Path     string `json:"path,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	AsPNG    bool   `json:"as_png,omitempty"`
}

type ResourceInfoResult struct {
	Request ResourceRequest `json:"request"`
	Info    json.RawMessage `json:"info"`
}

type ResourceDataResult struct {
	Request ResourceRequest `json:"request"`
	Data    json.RawMessage `json:"data"`
}

// ResourceInfo is the decoded body of a handle_resource_info reply.
type ResourceInfo struct {
	Path     string `json:"path"`
	MimeType string `json:"mimetype"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// ResourceData is the decoded body of a handle_resource_data reply. Data is
// base64.
type ResourceData struct {
	MimeType string `json:"mimetype"`
	Data     string `json:"data"`
}

// DecodeNested decodes a reply body that the host may send either as a JSON
// object or as a JSON string containing the object.
func DecodeNested(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return errors.Wrap(ErrDeserializationFailed, "empty body")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return errors.Wrapf(ErrDeserializationFailed, "body string: %v", err)
		}
		raw = json.RawMessage(s)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.Wrapf(ErrDeserializationFailed, "body: %v", err)
	}
	return nil
}
