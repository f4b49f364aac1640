package assetcache

import "time"

// Config holds asset cache worker configuration.
type Config struct {
	// Version is the build identifier; a new version supersedes every
	// previously cached store on activation
	Version string `env:"ASSET_CACHE_VERSION" envDefault:"dev"`

	// BatchSize caps how many deferred assets one bulk add handles
	BatchSize int `env:"ASSET_CACHE_BATCH_SIZE" envDefault:"10"`

	// BatchDelay is the pause between deferred batches so startup does
	// not saturate the upstream connection
	BatchDelay time.Duration `env:"ASSET_CACHE_BATCH_DELAY" envDefault:"100ms"`
}

// DefaultConfig returns default worker configuration.
func DefaultConfig() Config {
	return Config{
		Version:    "dev",
		BatchSize:  10,
		BatchDelay: 100 * time.Millisecond,
	}
}
