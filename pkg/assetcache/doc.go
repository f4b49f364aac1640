// Package assetcache maintains a single versioned cache of static
// assets with a service-worker style lifecycle.
//
// A Worker installs by caching a small critical asset set synchronously,
// activates by purging every store whose version tag differs from the
// current build, then populates the larger deferred asset set in
// throttled background batches. Fetch handling applies
// stale-while-revalidate: cached entries are served immediately while a
// tracked background fetch overwrites them with fresh responses.
//
// Stores are dumb named key-value buckets (in-memory or Redis);
// concurrent fetch handlers may overwrite the same key and the last
// write wins, which is safe because entries are idempotent documents
// keyed by request identity.
package assetcache
