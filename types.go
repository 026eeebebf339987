package taskauth

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of an authenticated identity
type Identity interface {
	ID() string
	Email() string
	Role() string
	Active() bool
}

// TokenPair is the result of a successful login: one access token and one
// refresh token issued together. TokenType is always "bearer".
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, email, password string, opts ...RequestOption) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string, opts ...RequestOption) (string, error)
	SessionFromToken(token string) (Session, error)
	IdentityFromSession(ctx context.Context, session Session) (Identity, error)
}

// Session holds attributes that are part of an auth session
type Session interface {
	GetUserID() string
	GetUserUUID() (uuid.UUID, error)
	GetRole() string
	GetIssuer() string
	GetIssuedAt() *time.Time
	GetExpiration() *time.Time
}

type LoginPayload interface {
	GetEmail() string
	GetPassword() string
}

type RefreshPayload interface {
	GetRefreshToken() string
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetContextKey() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetTokenLookup() string
	GetAuthScheme() string
	GetIssuer() string
	GetAudience() []string
}

// IdentityProvider ensure we have a store to retrieve auth identity
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, email, password string) (Identity, error)
	FindIdentityByID(ctx context.Context, id string) (Identity, error)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// IdentityResolver resolves the current identity behind a validated token's
// subject claim. The middleware uses it to reject deleted or deactivated
// accounts even while their tokens are still unexpired.
type IdentityResolver interface {
	FindIdentityByID(ctx context.Context, id string) (Identity, error)
}

type HTTPAuthenticator interface {
	Middleware
	Login(c router.Context, payload LoginPayload) (*TokenPair, error)
	Refresh(c router.Context, payload RefreshPayload) (string, error)
	MakeClientRouteAuthErrorHandler(optionalAuth bool) func(c router.Context, err error) error
}

// RequestOption carries per-request metadata into the authenticator so it can
// be attached to security events.
type RequestOption func(*requestMeta)

type requestMeta struct {
	ip string
}

// WithClientIP attaches the originating network address to the attempt.
func WithClientIP(ip string) RequestOption {
	return func(m *requestMeta) {
		m.ip = ip
	}
}

func applyRequestOptions(opts []RequestOption) requestMeta {
	meta := requestMeta{}
	for _, opt := range opts {
		if opt != nil {
			opt(&meta)
		}
	}
	return meta
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
