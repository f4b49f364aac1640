// Package authstore is the credential store adapter for the external
// identity provider that owns user accounts and auth tokens.
//
// A Client is bound to the provider's backend URL and carries one Store,
// an in-memory holder for the opaque auth token and the user record
// embedded in the signed auth cookie. The store decodes token claims
// locally (no signature verification, the provider owns the key) and
// exports its state back into a cookie at response time.
//
// The edge layer creates one Client per inbound request. The Store is
// still mutex-guarded because a detached background refresh may write to
// it after the request's response has been finalized; last writer wins.
package authstore
