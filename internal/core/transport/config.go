package transport

import (
	"net/http"
	"time"
)

// Config holds transport configuration.
type Config struct {
	URL    string
	Header http.Header

	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	// ReadLimit caps the size of an inbound frame. Zero means unlimited.
	ReadLimit int64

	// ReconnectDelay is the fixed wait before each reconnect attempt.
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int
}

// DefaultConfig returns default transport configuration.
func DefaultConfig() Config {
	return Config{
		URL:                  "ws://localhost:8086",
		HandshakeTimeout:     5 * time.Second,
		WriteTimeout:         5 * time.Second,
		ReadLimit:            32 * 1024 * 1024,
		ReconnectDelay:       time.Second,
		MaxReconnectAttempts: 10,
	}
}
