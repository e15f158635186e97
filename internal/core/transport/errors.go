package transport

import "errors"

var (
	ErrNotConnected = errors.New("transport is not connected")
	ErrClosed       = errors.New("transport closed by user")
)
