// Package authn verifies the bearer JWT that authenticates a gateway
// caller, independent of the end-user identity carried inside an
// AgentRequest body (user_id is an application concept; the JWT
// subject is the authenticated caller — typically a backend service
// acting on that user's behalf).
package authn

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrDisabled is returned when no signing secret was configured.
	ErrDisabled = errors.New("authn: disabled")
	// ErrInvalidToken is returned for any unparseable, expired, or
	// badly-signed token.
	ErrInvalidToken = errors.New("authn: invalid token")
)

// Identity is the authenticated caller attached to a request context.
type Identity struct {
	Subject string
	Scopes  []string
}

// HasScope reports whether the identity carries the given scope.
func (id Identity) HasScope(scope string) bool {
	for _, s := range id.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Claims is the JWT claim set signed and verified by TokenService.
type Claims struct {
	Scopes []string `json:"scopes,omitempty"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies caller JWTs with a single HMAC
// secret. A zero-value secret disables verification entirely (used in
// deployments that front the gateway with their own auth layer).
type TokenService struct {
	secret []byte
	expiry time.Duration
}

// NewTokenService builds a TokenService. An empty secret yields a
// disabled service whose Verify always returns ErrDisabled.
func NewTokenService(secret string, expiry time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), expiry: expiry}
}

// Enabled reports whether token verification is configured.
func (s *TokenService) Enabled() bool {
	return s != nil && len(s.secret) > 0
}

// Issue signs a token for subject with the given scopes. Primarily
// used by tests and operator tooling; the gateway itself only verifies
// tokens issued by an external identity provider.
func (s *TokenService) Issue(subject string, scopes []string) (string, error) {
	if !s.Enabled() {
		return "", ErrDisabled
	}
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("authn: subject required")
	}
	now := time.Now()
	claims := Claims{
		Scopes: scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if s.expiry > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.expiry))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify parses and validates a bearer token, returning the identity
// embedded in its claims.
func (s *TokenService) Verify(token string) (Identity, error) {
	if !s.Enabled() {
		return Identity{}, ErrDisabled
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{Subject: claims.Subject, Scopes: claims.Scopes}, nil
}

type identityContextKey struct{}

// WithIdentity attaches id to ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// FromContext retrieves the identity attached by the auth middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}
