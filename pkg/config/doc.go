// Package config provides a type-safe, generic and cached way to load
// application configuration from environment variables.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11 behind a
// small API: LoadEnv reads one or more .env files into the process
// environment, Load parses the environment into any struct with env field
// tags, and MustLoad panics when a required configuration cannot be built.
// Each struct type is parsed once per process and served from an in-memory
// cache afterwards; ResetCache clears the cache for tests.
package config
