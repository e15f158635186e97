package client

import "errors"

// Client-specific errors
var (
	ErrClientClosed   = errors.New("client is closed")
	ErrAlreadyRunning = errors.New("client is already running")
	ErrNotRunning     = errors.New("client is not running")
	ErrDisconnected   = errors.New("connection lost and reconnect attempts exhausted")
)
