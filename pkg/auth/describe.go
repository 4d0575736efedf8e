package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is what the CLI can tell about a stored access token without
// contacting the instance.
type TokenInfo struct {
	Subject   string
	Issuer    string
	ExpiresAt time.Time
}

// Expired reports whether the token's expiry, when present, has passed.
func (i TokenInfo) Expired() bool {
	return !i.ExpiresAt.IsZero() && time.Now().After(i.ExpiresAt)
}

// DescribeToken decodes the claims of a JWT access token. The signature is
// not verified; only the instance can do that, and this is display-only.
func DescribeToken(token string) (TokenInfo, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return TokenInfo{}, fmt.Errorf("token is not a valid JWT: %w", err)
	}

	info := TokenInfo{}
	if sub, err := parsed.Claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if iss, err := parsed.Claims.GetIssuer(); err == nil {
		info.Issuer = iss
	}
	if exp, err := parsed.Claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	return info, nil
}
