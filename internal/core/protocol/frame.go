package protocol

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// DecodeFrame splits one text frame into its envelopes, preserving order.
func DecodeFrame(data []byte) ([]Envelope, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.Wrap(ErrMalformedFrame, "empty frame")
	}

	var envs []Envelope
	if data[0] == '[' {
		if err := json.Unmarshal(data, &envs); err != nil {
			return nil, errors.Wrapf(ErrMalformedFrame, "batch: %v", err)
		}
	} else {
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, errors.Wrapf(ErrMalformedFrame, "envelope: %v", err)
		}
		envs = []Envelope{env}
	}

	for i, env := range envs {
		if env.Message == "" || env.Payload == nil {
			return nil, errors.Wrapf(ErrMalformedFrame, "envelope %d lacks message or payload", i)
		}
	}
	return envs, nil
}

// EncodeFrame serializes envelopes into one text frame. A single envelope is
// written bare, more than one as an array.
func EncodeFrame(envs ...Envelope) ([]byte, error) {
	switch len(envs) {
	case 0:
		return nil, errors.Wrap(ErrInvalidMessage, "no envelopes")
	case 1:
		return json.Marshal(envs[0])
	default:
		return json.Marshal(envs)
	}
}

// Source extracts the optional "source" field of a payload without decoding
// the rest of it.
func (e Envelope) Source() string {
	var probe struct {
		Source string `json:"source"`
	}
	if err := json.Unmarshal(e.Payload, &probe); err != nil {
		return ""
	}
	return probe.Source
}
