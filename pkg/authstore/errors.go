package authstore

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMissingToken indicates the store holds no auth token
	ErrMissingToken = errors.New("authstore.missing_token")

	// ErrMalformedToken indicates the auth token could not be parsed
	ErrMalformedToken = errors.New("authstore.malformed_token")

	// ErrMalformedCookie indicates the auth cookie payload could not be decoded
	ErrMalformedCookie = errors.New("authstore.malformed_cookie")
)

// APIError is a non-2xx response from the identity provider.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("authstore: provider returned %d: %s", e.Status, e.Message)
}

// IsAuthError reports whether err is a provider rejection of the
// credentials themselves (401/403), as opposed to a transport or server
// failure. Only auth errors justify logging the user out.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden
}
