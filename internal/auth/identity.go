package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"clinicare/cli/internal/backend"
)

// Identity is a bearer token together with the profile it belongs to.
// It is always replaced as a whole.
type Identity struct {
	Token  string
	Doctor backend.Doctor
}

// ExpiresAt returns the token's exp claim. The signature is not checked; the
// server remains the authority on validity. ok is false for opaque tokens or
// tokens without an expiry.
func (id Identity) ExpiresAt() (exp time.Time, ok bool) {
	if id.Token == "" {
		return time.Time{}, false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(id.Token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Subject returns the token's sub claim, or "" when it has none.
func (id Identity) Subject() string {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(id.Token, &claims); err != nil {
		return ""
	}
	return claims.Subject
}
