// Package redis provides helpers for connecting to a Redis server.
//
// It wraps the go-redis client with a Connect function that retries the
// initial connection according to the supplied Config, and a Healthcheck
// helper for liveness and readiness probes. Config fields are populated
// from environment variables via github.com/caarlos0/env.
package redis
