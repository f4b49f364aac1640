package assetcache

import "strings"

// DefaultCriticalAssets must exist in the cache before the worker
// reports ready: root document, manifest, favicon and the PWA icons.
var DefaultCriticalAssets = []string{
	"/",
	"/manifest.json",
	"/favicon.png",
	"/pwa-192x192.png",
	"/pwa-512x512.png",
}

// CacheName returns the versioned cache name for a build identifier.
func CacheName(version string) string {
	return "cache-" + version
}

// FilterDeferred trims the deferred asset list to what is worth caching
// at startup: large per-entity images and non-manifest JSON data files
// are excluded.
func FilterDeferred(files []string) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		if strings.Contains(f, "/senator/") || strings.Contains(f, "/img/") {
			continue
		}
		if strings.HasSuffix(f, ".json") && !strings.Contains(f, "manifest") {
			continue
		}
		out = append(out, f)
	}
	return out
}

// batchKeys splits keys into consecutive batches of at most size,
// yielding ceil(len/size) batches.
func batchKeys(keys []string, size int) [][]string {
	if size <= 0 {
		size = 1
	}

	batches := make([][]string, 0, (len(keys)+size-1)/size)
	for start := 0; start < len(keys); start += size {
		end := min(start+size, len(keys))
		batches = append(batches, keys[start:end])
	}
	return batches
}
