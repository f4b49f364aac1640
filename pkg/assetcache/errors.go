package assetcache

import "errors"

var (
	// ErrPassThrough indicates the worker declines to handle the request
	// and the caller must forward the original request upstream intact
	// (non-GET methods, API paths, local hosts)
	ErrPassThrough = errors.New("assetcache.pass_through")

	// ErrCriticalAsset indicates a critical asset could not be cached
	// during install
	ErrCriticalAsset = errors.New("assetcache.critical_asset_failed")
)
