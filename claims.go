package taskauth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenClass partitions tokens by purpose. A token of one class is never
// accepted where the other class is required.
type TokenClass string

const (
	// TokenClassAccess is the short-lived proof presented on every request.
	TokenClassAccess TokenClass = "access"
	// TokenClassRefresh is the long-lived proof accepted only by the renewer.
	TokenClassRefresh TokenClass = "refresh"
)

// AuthClaims represents structured JWT claims after validation
type AuthClaims interface {
	Subject() string
	UserID() string
	Role() string
	Class() TokenClass
	HasRole(role string) bool
	IsAtLeast(minRole string) bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims
type JWTClaims struct {
	jwt.RegisteredClaims
	UserRole   string     `json:"role,omitempty"`
	TokenClass TokenClass `json:"type,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *JWTClaims) UserID() string {
	return c.Subject()
}

// Role returns the role snapshot taken at issuance time
func (c *JWTClaims) Role() string {
	return c.UserRole
}

// Class returns the token class
func (c *JWTClaims) Class() TokenClass {
	return c.TokenClass
}

// HasRole checks if the user has a specific role
func (c *JWTClaims) HasRole(role string) bool {
	return c.UserRole == role
}

// IsAtLeast checks if the user's role is at least the minimum required role
func (c *JWTClaims) IsAtLeast(minRole string) bool {
	return Allows(c.UserRole, minRole)
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
