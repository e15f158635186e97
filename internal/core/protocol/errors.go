package protocol

import "errors"

var (
	ErrInvalidMessage        = errors.New("invalid message")
	ErrMalformedFrame        = errors.New("malformed frame")
	ErrSerializationFailed   = errors.New("message serialization failed")
	ErrDeserializationFailed = errors.New("message deserialization failed")

	// Outbound value errors. These indicate a caller bug and are returned
	// before anything reaches the socket.

	ErrInvalidValue     = errors.New("invalid value")
	ErrNestedValue      = errors.New("nested value not allowed in flat list")
	ErrUnsupportedValue = errors.New("unsupported value type")
)
