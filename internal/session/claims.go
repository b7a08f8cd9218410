package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a stored token cannot be parsed.
// Callers must treat this as a distinct condition, not as "no session".
var ErrInvalidToken = errors.New("session: invalid token")

// Claims is the client-readable subset of the token payload. The client
// holds no signing secret, so claims are decoded without verification
// and must never back an authorization decision; only the backend's
// auth check does that.
type Claims struct {
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// ParseClaims decodes the payload of a bearer token. Malformed tokens
// and tokens without a username claim return ErrInvalidToken.
func ParseClaims(token string) (*Claims, error) {
	var tc tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &tc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if tc.Username == "" {
		return nil, fmt.Errorf("%w: missing username claim", ErrInvalidToken)
	}

	claims := &Claims{Username: tc.Username}
	if tc.IssuedAt != nil {
		claims.IssuedAt = tc.IssuedAt.Time
	}
	if tc.ExpiresAt != nil {
		claims.ExpiresAt = tc.ExpiresAt.Time
	}

	return claims, nil
}
