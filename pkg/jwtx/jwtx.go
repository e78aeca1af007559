// Package jwtx wraps HS256 bearer token signing and verification for the
// provisioning API. Inviter-facing endpoints are authenticated with a shared
// secret; there is no key rotation or JWKS surface here.
package jwtx

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("jwtx: invalid token")
	ErrNoSecret     = errors.New("jwtx: signing secret not configured")
)

// Claims is the subset of JWT claims the provisioning API cares about.
type Claims struct {
	Subject string
	Name    string
	Scopes  []string
}

// HasScope reports whether the claims carry the given scope.
func (c Claims) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// HS256 signs and verifies tokens with a single shared secret.
type HS256 struct {
	Secret []byte
	Issuer string
}

// Sign mints a token for the given claims with the provided lifetime.
func (h *HS256) Sign(c Claims, ttl time.Duration) (string, error) {
	if len(h.Secret) == 0 {
		return "", ErrNoSecret
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss":   h.Issuer,
		"sub":   c.Subject,
		"name":  c.Name,
		"scope": strings.Join(c.Scopes, " "),
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	})

	signed, err := token.SignedString(h.Secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: signing failed: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a raw token, returning its claims.
// Expiry and issuer are checked by the parser.
func (h *HS256) Verify(raw string) (Claims, error) {
	if len(h.Secret) == 0 {
		return Claims{}, ErrNoSecret
	}

	token, err := jwt.Parse(raw,
		func(t *jwt.Token) (any, error) { return h.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(h.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	claims := Claims{}
	if sub, ok := mc["sub"].(string); ok {
		claims.Subject = sub
	}
	if name, ok := mc["name"].(string); ok {
		claims.Name = name
	}
	if scope, ok := mc["scope"].(string); ok {
		claims.Scopes = strings.Fields(scope)
	}

	if claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
