// Package cookie serializes and reads HTTP cookies with functional
// options over a fixed set of safe defaults (path=/, HttpOnly,
// SameSite=Lax). The credential store uses it to export its auth cookie
// and the session middleware uses it to pull the cookie back off the
// inbound Cookie header.
package cookie
