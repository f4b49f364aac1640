package httpserver

import "errors"

var (
	// ErrStart wraps any failure to bring the listener up, including a
	// second Run call on the same Server.
	ErrStart = errors.New("failed to start HTTP server")
	// ErrShutdown wraps failures of the graceful shutdown, typically the
	// deadline expiring with requests still in flight.
	ErrShutdown = errors.New("failed to shutdown HTTP server gracefully")
)
