package cookie

import "errors"

var (
	// ErrCookieNotFound indicates the requested cookie is absent from the header
	ErrCookieNotFound = errors.New("cookie.not_found")
)
