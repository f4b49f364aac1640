package session

import "time"

// Config holds session middleware configuration.
type Config struct {
	// BackendURL is the identity provider base URL
	BackendURL string `env:"BACKEND_URL" envDefault:"http://localhost:8090"`

	// APIURL, WSURL and APIKey are backend connection parameters exposed
	// to downstream handlers through the request locals
	APIURL string `env:"API_URL" envDefault:""`
	WSURL  string `env:"WS_URL" envDefault:""`
	APIKey string `env:"API_KEY" envDefault:""`

	// RefreshThreshold triggers a token refresh when the remaining token
	// lifetime falls below it
	RefreshThreshold time.Duration `env:"SESSION_REFRESH_THRESHOLD" envDefault:"1h"`

	// SyncRefreshTimeout bounds the wait for a synchronous refresh
	SyncRefreshTimeout time.Duration `env:"SESSION_SYNC_REFRESH_TIMEOUT" envDefault:"5s"`

	// CookieMaxAge is the lifetime of the exported auth cookie
	CookieMaxAge time.Duration `env:"SESSION_COOKIE_MAX_AGE" envDefault:"720h"`
}

// DefaultConfig returns default session configuration.
func DefaultConfig() Config {
	return Config{
		BackendURL:         "http://localhost:8090",
		RefreshThreshold:   time.Hour,
		SyncRefreshTimeout: 5 * time.Second,
		CookieMaxAge:       30 * 24 * time.Hour,
	}
}
