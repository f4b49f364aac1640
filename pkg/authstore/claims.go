package authstore

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of token claims the edge layer acts on.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// TimeUntilExpiry returns how long the token remains valid from now.
// Negative values mean the token has already expired.
func (c Claims) TimeUntilExpiry(now time.Time) time.Duration {
	return c.ExpiresAt.Sub(now)
}

// DecodeClaims extracts claims from a token without verifying its
// signature. The identity provider owns the signing key; the edge layer
// only needs the expiry to decide when to refresh.
func DecodeClaims(token string) (Claims, error) {
	var rc jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &rc); err != nil {
		return Claims{}, errors.Join(ErrMalformedToken, err)
	}

	claims := Claims{Subject: rc.Subject}
	if rc.ExpiresAt != nil {
		claims.ExpiresAt = rc.ExpiresAt.Time
	}
	return claims, nil
}
