package cookie

import (
	"errors"
	"net/http"
)

// Defaults applied by Serialize before per-call options.
// Lax same-site keeps cross-site navigation working while still
// blocking cross-site subrequests from sending the cookie.
var defaults = Options{
	Path:     "/",
	HttpOnly: true,
	SameSite: http.SameSiteLaxMode,
}

// Serialize renders a Set-Cookie header value for the given name/value
// pair. Attribute defaults are path=/, HttpOnly and SameSite=Lax.
func Serialize(name, value string, opts ...Option) string {
	options := applyOptions(defaults, opts)

	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     options.Path,
		Domain:   options.Domain,
		MaxAge:   options.MaxAge,
		Secure:   options.Secure,
		HttpOnly: options.HttpOnly,
		SameSite: options.SameSite,
	}

	return c.String()
}

// Read extracts the named cookie value from a raw Cookie request header.
// Returns ErrCookieNotFound when the header does not carry the cookie.
func Read(header, name string) (string, error) {
	if header == "" {
		return "", ErrCookieNotFound
	}

	r := &http.Request{Header: http.Header{"Cookie": []string{header}}}
	c, err := r.Cookie(name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrCookieNotFound
		}
		return "", err
	}
	return c.Value, nil
}
