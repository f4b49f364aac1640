package authstore

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/stocknear/edge/pkg/cookie"
)

// CookieName is fixed by the identity provider's client convention.
const CookieName = "pb_auth"

// Record is the user model embedded in the auth cookie and returned by
// the provider on refresh.
type Record struct {
	ID       string `json:"id"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Verified bool   `json:"verified,omitempty"`
	Created  string `json:"created,omitempty"`
	Updated  string `json:"updated,omitempty"`
}

// cookiePayload is the wire shape of the auth cookie value.
type cookiePayload struct {
	Token string  `json:"token"`
	Model *Record `json:"model"`
}

// Store holds the auth token and user record for one client.
//
// All accessors take the lock: a detached refresh goroutine may call
// Save or Clear while the request goroutine reads or exports the state.
type Store struct {
	mu     sync.RWMutex
	token  string
	record *Record
}

// LoadFromCookie initializes the store from a raw Cookie request header.
// A missing cookie leaves the store empty and returns ErrCookieNotFound;
// an undecodable payload leaves the store empty and returns
// ErrMalformedCookie. Neither is fatal to the request.
func (s *Store) LoadFromCookie(header string) error {
	value, err := cookie.Read(header, CookieName)
	if err != nil {
		return err
	}

	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return errors.Join(ErrMalformedCookie, err)
	}

	var payload cookiePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return errors.Join(ErrMalformedCookie, err)
	}

	s.mu.Lock()
	s.token = payload.Token
	s.record = payload.Model
	s.mu.Unlock()
	return nil
}

// Save replaces the stored token and record.
func (s *Store) Save(token string, record *Record) {
	s.mu.Lock()
	s.token = token
	s.record = record
	s.mu.Unlock()
}

// Clear discards the token and record, logging the user out on the next
// exported cookie.
func (s *Store) Clear() {
	s.mu.Lock()
	s.token = ""
	s.record = nil
	s.mu.Unlock()
}

// Token returns the stored auth token, empty when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Model returns the stored user record, nil when logged out.
func (s *Store) Model() *Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record
}

// Claims decodes the stored token's claims.
func (s *Store) Claims() (Claims, error) {
	token := s.Token()
	if token == "" {
		return Claims{}, ErrMissingToken
	}
	return DecodeClaims(token)
}

// IsValid reports whether the store holds usable credentials: a token
// that parses, has not expired, and is paired with a user record that
// carries an ID. A token without a matching record is never valid.
func (s *Store) IsValid() bool {
	s.mu.RLock()
	token, record := s.token, s.record
	s.mu.RUnlock()

	if token == "" || record == nil || record.ID == "" {
		return false
	}

	claims, err := DecodeClaims(token)
	if err != nil {
		return false
	}
	return claims.ExpiresAt.After(time.Now())
}

// ExportToCookie serializes the current state into a Set-Cookie value.
// An empty store exports an empty cookie, which logs the client out.
func (s *Store) ExportToCookie(opts ...cookie.Option) string {
	s.mu.RLock()
	payload := cookiePayload{Token: s.token, Model: s.record}
	s.mu.RUnlock()

	raw, err := json.Marshal(payload)
	if err != nil {
		// Record and token are plain serializable values; this cannot
		// fail for real inputs, but degrade to a logout cookie anyway.
		return cookie.Serialize(CookieName, "", opts...)
	}

	value := base64.RawURLEncoding.EncodeToString(raw)
	return cookie.Serialize(CookieName, value, opts...)
}
