package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the displayable subset of an access token's JWT claims.
type TokenClaims struct {
	Subject   string
	Email     string
	ExpiresAt time.Time
}

// PeekClaims decodes claims from an access token without verifying its
// signature. The client holds no issuer key; these values are for display
// only and expiry handling stays 401-driven. Tokens that are not JWTs are
// reported as an error, which callers treat as "nothing to show".
func PeekClaims(accessToken string) (*TokenClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return nil, fmt.Errorf("failed to decode access token claims: %w", err)
	}

	out := &TokenClaims{}
	if sub, err := claims.GetSubject(); err == nil {
		out.Subject = sub
	}
	if email, ok := claims["email"].(string); ok {
		out.Email = email
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}
