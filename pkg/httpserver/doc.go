// Package httpserver provides a lightweight wrapper around net/http that
// adds graceful shutdown, configurable server timeouts, health-check
// handlers, and structured logging via slog.
//
// The core type is Server. Run starts the listener in its own goroutine and
// blocks until the context is cancelled or an interrupt/TERM signal
// arrives, then shuts the server down with a configurable deadline.
// Construction goes through New or NewFromConfig with functional Option
// helpers; WithStartHook and WithStopHook run side-effects around the
// server life-cycle. Errors are wrapped with the ErrStart and ErrShutdown
// sentinels for errors.Is checks.
package httpserver
