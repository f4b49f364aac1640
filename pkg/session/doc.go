// Package session resolves user identity once per inbound request and
// keeps the auth token fresh without blocking page responses.
//
// Per request the manager builds one identity-provider client, loads the
// auth cookie into its credential store, and decides whether the token
// is close enough to expiry to refresh. Refresh runs in one of two
// modes: detached (the response never waits, the fresh token shows up on
// the next request) or synchronous (the refresh is raced against a fixed
// timeout before protected content is served). Either way exactly one
// refresh attempt happens per request.
//
// Refresh failures are classified, not string-matched: a 401/403 from
// the provider clears the session, anything else (timeout, transport,
// undecodable response) fails open and keeps the prior session.
package session
