package taskauth_test

import (
	"context"
	"time"

	"github.com/goliatone/go-taskauth"
	"github.com/stretchr/testify/mock"
)

// MockIdentityProvider implements taskauth.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, email, password string) (taskauth.Identity, error) {
	args := m.Called(ctx, email, password)
	if identity, ok := args.Get(0).(taskauth.Identity); ok {
		return identity, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByID(ctx context.Context, id string) (taskauth.Identity, error) {
	args := m.Called(ctx, id)
	if identity, ok := args.Get(0).(taskauth.Identity); ok {
		return identity, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockUserStore implements taskauth.UserStore
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*taskauth.User, error) {
	args := m.Called(ctx, email)
	if user, ok := args.Get(0).(*taskauth.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserStore) GetByIdentifier(ctx context.Context, identifier string) (*taskauth.User, error) {
	args := m.Called(ctx, identifier)
	if user, ok := args.Get(0).(*taskauth.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserStore) TrackAttemptedLogin(ctx context.Context, user *taskauth.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserStore) TrackSuccessfulLogin(ctx context.Context, user *taskauth.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// TestIdentity is a plain value implementation of taskauth.Identity
type TestIdentity struct {
	id     string
	email  string
	role   string
	active bool
}

func (t TestIdentity) ID() string    { return t.id }
func (t TestIdentity) Email() string { return t.email }
func (t TestIdentity) Role() string  { return t.role }
func (t TestIdentity) Active() bool  { return t.active }

// capturingRecorder collects security events, optionally failing every record
type capturingRecorder struct {
	events []taskauth.SecurityEvent
	err    error
}

func (c *capturingRecorder) Record(ctx context.Context, evt taskauth.SecurityEvent) error {
	c.events = append(c.events, evt)
	return c.err
}

// testConfig implements taskauth.Config
type testConfig struct {
	signingKey string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func newTestConfig() testConfig {
	return testConfig{
		signingKey: "test-signing-key",
		accessTTL:  15 * time.Minute,
		refreshTTL: 7 * 24 * time.Hour,
	}
}

func (c testConfig) GetSigningKey() string              { return c.signingKey }
func (c testConfig) GetSigningMethod() string           { return "HS256" }
func (c testConfig) GetContextKey() string              { return "user" }
func (c testConfig) GetAccessTokenTTL() time.Duration   { return c.accessTTL }
func (c testConfig) GetRefreshTokenTTL() time.Duration  { return c.refreshTTL }
func (c testConfig) GetTokenLookup() string             { return "header:Authorization" }
func (c testConfig) GetAuthScheme() string              { return "Bearer" }
func (c testConfig) GetIssuer() string                  { return "test-issuer" }
func (c testConfig) GetAudience() []string              { return []string{"test-audience"} }
