// Package auth turns credentials into an authz.Identity and back.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. The client logs in (POST /auth/login, or the GitHub callback).
//  2. The server issues a signed JWT carrying the user's id, name, role and
//     email.
//  3. The client sends it on every later call as "Authorization: Bearer <jwt>".
//  4. OptionalAuth / RequireAuth verify it and put the Identity in the
//     request context; handlers pass that Identity to the services.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"sub":"u_...","name":"Ada","role":"Student","email":"...",
//	            "iss":"...","aud":["..."],"iat":...,"exp":...}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
//
// Tokens are not refreshed and not revocable: a token is good until exp.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/openlecture/internal/authz"
)

// DefaultTokenLifetime is how long an issued token stays valid.
const DefaultTokenLifetime = 6 * time.Hour

// TokenConfig configures a TokenService.
type TokenConfig struct {
	Secret   string
	Issuer   string
	Audience string
	// Lifetime defaults to DefaultTokenLifetime when zero.
	Lifetime time.Duration
}

// TokenService issues and verifies HS256 access tokens.
type TokenService struct {
	secret   []byte
	issuer   string
	audience string
	lifetime time.Duration
}

// NewTokenService creates a TokenService.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if len(cfg.Secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if cfg.Issuer == "" || cfg.Audience == "" {
		return nil, errors.New("auth: JWT issuer and audience are required")
	}
	lifetime := cfg.Lifetime
	if lifetime <= 0 {
		lifetime = DefaultTokenLifetime
	}
	return &TokenService{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		lifetime: lifetime,
	}, nil
}

// Lifetime returns the validity window of tokens from Issue.
func (s *TokenService) Lifetime() time.Duration {
	return s.lifetime
}

// claims is the JWT payload: the registered claims plus the three
// identity claims the API reads back.
type claims struct {
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Issue signs a token for id that expires after the configured lifetime.
func (s *TokenService) Issue(id authz.Identity) (string, error) {
	return s.IssueWithDuration(id, s.lifetime)
}

// IssueWithDuration signs a token with a custom lifetime. Tests use a
// negative duration to get an already-expired token.
func (s *TokenService) IssueWithDuration(id authz.Identity, d time.Duration) (string, error) {
	if id.SubjectID == "" {
		return "", errors.New("auth: cannot issue a token without a subject")
	}

	now := time.Now()
	c := claims{
		Name:  id.DisplayName,
		Role:  string(id.Role),
		Email: id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.SubjectID,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Verify parses tokenStr and returns the identity it carries.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - the signature is valid and the algorithm is HS256
//   - exp is present and in the future
//   - iss and aud match this service's configuration
//
// An unrecognised role claim yields an identity without a role, which the
// policy treats as an ordinary non-admin caller.
func (s *TokenService) Verify(tokenStr string) (authz.Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return authz.Identity{}, errors.New("auth: token expired")
		}
		return authz.Identity{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return authz.Identity{}, errors.New("auth: invalid token claims")
	}
	if c.Subject == "" {
		return authz.Identity{}, errors.New("auth: token has no subject")
	}

	role, _ := authz.ParseRole(c.Role)
	return authz.Identity{
		SubjectID:   c.Subject,
		Role:        role,
		DisplayName: c.Name,
		Email:       c.Email,
	}, nil
}
