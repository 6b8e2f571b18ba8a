package utils // package utils provides helper functions for token creation

import (
	"errors"
	"time" // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens

	"github.com/iliyamo/cinema-backoffice/internal/model"
)

// AccessToken represents a signed JWT access token along with its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewAccessToken signs an HS256 JWT for p, in the same shape the identity
// service issues: sub, role, exp and iat.  Numeric user ids are written
// as JSON numbers.  The service itself only verifies tokens; minting is
// used by the tokengen tool and tests.
func NewAccessToken(secret string, p model.Principal, ttl time.Duration) (AccessToken, error) {
	if p.UserID.IsZero() {
		return AccessToken{}, errors.New("principal has no user id")
	}
	now := time.Now().UTC()
	exp := now.Add(ttl)

	var sub any = p.UserID.String()
	if n, err := p.UserID.Uint64(); err == nil {
		sub = n
	}
	claims := jwt.MapClaims{
		"sub":  sub,
		"role": p.Role,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}
