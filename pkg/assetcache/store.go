package assetcache

import "context"

// Cache is one named bucket of cached entries keyed by request identity.
type Cache interface {
	// Match returns the cached entry for the key, if any.
	Match(ctx context.Context, key string) (Entry, bool, error)

	// Put stores or overwrites the entry for the key.
	Put(ctx context.Context, key string, entry Entry) error
}

// Store manages named caches. At most one cache per version tag exists;
// activation drops every name that does not match the current version.
type Store interface {
	// Open returns the named cache, creating it if needed.
	Open(ctx context.Context, name string) (Cache, error)

	// Names lists all existing cache names.
	Names(ctx context.Context) ([]string, error)

	// Drop removes the named cache and all its entries.
	Drop(ctx context.Context, name string) error
}
