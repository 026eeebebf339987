package taskauth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-taskauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService() taskauth.TokenService {
	return taskauth.NewTokenService(
		[]byte("test-signing-key"),
		15*time.Minute,
		7*24*time.Hour,
		"test-issuer",
		jwt.ClaimStrings{"test-audience"},
		nil,
	)
}

func testIdentity() TestIdentity {
	return TestIdentity{
		id:     "b7a6c2a0-9f41-4a7c-8a1e-2f4c5d6e7f80",
		email:  "user@example.com",
		role:   taskauth.RoleMember,
		active: true,
	}
}

func TestTokenServiceIssuePair(t *testing.T) {
	service := newTestTokenService()
	identity := testIdentity()

	pair, err := service.IssuePair(identity)
	require.NoError(t, err)
	require.NotNil(t, pair)

	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	assert.Equal(t, taskauth.TokenTypeBearer, pair.TokenType)

	t.Run("access token round trip", func(t *testing.T) {
		claims, err := service.Validate(pair.AccessToken, taskauth.TokenClassAccess)
		require.NoError(t, err)

		assert.Equal(t, identity.ID(), claims.Subject())
		assert.Equal(t, identity.Role(), claims.Role())
		assert.Equal(t, taskauth.TokenClassAccess, claims.Class())
	})

	t.Run("refresh token round trip", func(t *testing.T) {
		claims, err := service.Validate(pair.RefreshToken, taskauth.TokenClassRefresh)
		require.NoError(t, err)

		assert.Equal(t, identity.ID(), claims.Subject())
		assert.Equal(t, taskauth.TokenClassRefresh, claims.Class())
	})

	t.Run("refresh expires after access", func(t *testing.T) {
		access, err := service.Validate(pair.AccessToken, taskauth.TokenClassAccess)
		require.NoError(t, err)
		refresh, err := service.Validate(pair.RefreshToken, taskauth.TokenClassRefresh)
		require.NoError(t, err)

		assert.True(t, refresh.Expires().After(access.Expires()))
	})
}

func TestTokenServiceTTLFallback(t *testing.T) {
	identity := testIdentity()

	t.Run("zero ttls fall back to defaults", func(t *testing.T) {
		service := taskauth.NewTokenService(
			[]byte("test-signing-key"), 0, 0,
			"test-issuer", jwt.ClaimStrings{"test-audience"}, nil,
		)

		pair, err := service.IssuePair(identity)
		require.NoError(t, err)

		access, err := service.Validate(pair.AccessToken, taskauth.TokenClassAccess)
		require.NoError(t, err)
		refresh, err := service.Validate(pair.RefreshToken, taskauth.TokenClassRefresh)
		require.NoError(t, err)

		assert.WithinDuration(t, time.Now().Add(15*time.Minute), access.Expires(), 5*time.Second)
		assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), refresh.Expires(), 5*time.Second)
	})

	t.Run("refresh always outlives access", func(t *testing.T) {
		// a 30 day access ttl exceeds the stock 7 day refresh fallback
		service := taskauth.NewTokenService(
			[]byte("test-signing-key"), 30*24*time.Hour, time.Hour,
			"test-issuer", jwt.ClaimStrings{"test-audience"}, nil,
		)

		pair, err := service.IssuePair(identity)
		require.NoError(t, err)

		access, err := service.Validate(pair.AccessToken, taskauth.TokenClassAccess)
		require.NoError(t, err)
		refresh, err := service.Validate(pair.RefreshToken, taskauth.TokenClassRefresh)
		require.NoError(t, err)

		assert.True(t, refresh.Expires().After(access.Expires()))
	})
}

func TestTokenServiceClassConfusion(t *testing.T) {
	service := newTestTokenService()

	pair, err := service.IssuePair(testIdentity())
	require.NoError(t, err)

	t.Run("refresh token rejected where access is required", func(t *testing.T) {
		claims, err := service.Validate(pair.RefreshToken, taskauth.TokenClassAccess)
		assert.Nil(t, claims)
		assert.ErrorIs(t, err, taskauth.ErrTokenWrongClass)
	})

	t.Run("access token rejected where refresh is required", func(t *testing.T) {
		claims, err := service.Validate(pair.AccessToken, taskauth.TokenClassRefresh)
		assert.Nil(t, claims)
		assert.ErrorIs(t, err, taskauth.ErrTokenWrongClass)
	})
}

func TestTokenServiceValidateFailures(t *testing.T) {
	service := newTestTokenService()

	t.Run("garbage token is malformed", func(t *testing.T) {
		claims, err := service.Validate("not-a-jwt", taskauth.TokenClassAccess)
		assert.Nil(t, claims)
		assert.ErrorIs(t, err, taskauth.ErrTokenMalformed)
	})

	t.Run("empty token is malformed", func(t *testing.T) {
		_, err := service.Validate("", taskauth.TokenClassAccess)
		assert.ErrorIs(t, err, taskauth.ErrTokenMalformed)
	})

	t.Run("token signed with a different key", func(t *testing.T) {
		other := taskauth.NewTokenService(
			[]byte("another-signing-key"),
			15*time.Minute,
			7*24*time.Hour,
			"test-issuer",
			jwt.ClaimStrings{"test-audience"},
			nil,
		)

		token, err := other.IssueAccess(testIdentity())
		require.NoError(t, err)

		claims, err := service.Validate(token, taskauth.TokenClassAccess)
		assert.Nil(t, claims)
		assert.ErrorIs(t, err, taskauth.ErrTokenSignatureInvalid)
	})

	t.Run("tampered signature", func(t *testing.T) {
		token, err := service.IssueAccess(testIdentity())
		require.NoError(t, err)

		// swap the last signature character for a different base64url rune
		tampered := []byte(token)
		last := len(tampered) - 1
		if tampered[last] == 'A' {
			tampered[last] = 'B'
		} else {
			tampered[last] = 'A'
		}

		claims, err := service.Validate(string(tampered), taskauth.TokenClassAccess)
		assert.Nil(t, claims)
		assert.ErrorIs(t, err, taskauth.ErrTokenSignatureInvalid)
	})

	t.Run("expired token", func(t *testing.T) {
		now := time.Now()
		claims := &taskauth.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "test-issuer",
				Subject:   "user-123",
				Audience:  jwt.ClaimStrings{"test-audience"},
				IssuedAt:  jwt.NewNumericDate(now.Add(-time.Hour)),
				ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute)),
			},
			UserRole:   taskauth.RoleMember,
			TokenClass: taskauth.TokenClassAccess,
		}

		token, err := service.SignClaims(claims)
		require.NoError(t, err)

		parsed, err := service.Validate(token, taskauth.TokenClassAccess)
		assert.Nil(t, parsed)
		assert.ErrorIs(t, err, taskauth.ErrTokenExpired)
		assert.True(t, taskauth.IsTokenExpiredError(err))
	})

	t.Run("token not valid yet", func(t *testing.T) {
		now := time.Now()
		claims := &taskauth.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "test-issuer",
				Subject:   "user-123",
				Audience:  jwt.ClaimStrings{"test-audience"},
				NotBefore: jwt.NewNumericDate(now.Add(time.Hour)),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(2 * time.Hour)),
			},
			UserRole:   taskauth.RoleMember,
			TokenClass: taskauth.TokenClassAccess,
		}

		token, err := service.SignClaims(claims)
		require.NoError(t, err)

		parsed, err := service.Validate(token, taskauth.TokenClassAccess)
		assert.Nil(t, parsed)
		assert.ErrorIs(t, err, taskauth.ErrTokenNotYetValid)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := taskauth.NewTokenService(
			[]byte("test-signing-key"),
			15*time.Minute,
			7*24*time.Hour,
			"other-issuer",
			jwt.ClaimStrings{"test-audience"},
			nil,
		)

		token, err := other.IssueAccess(testIdentity())
		require.NoError(t, err)

		_, err = service.Validate(token, taskauth.TokenClassAccess)
		assert.ErrorIs(t, err, taskauth.ErrTokenMalformed)
	})

	t.Run("nil claims cannot be signed", func(t *testing.T) {
		_, err := service.SignClaims(nil)
		assert.Error(t, err)
	})
}

func TestTokenErrorsShareGenericMessage(t *testing.T) {
	// none of the token rejections may leak why the token failed
	tokenErrors := []*goerrors.Error{
		taskauth.ErrTokenMalformed,
		taskauth.ErrTokenSignatureInvalid,
		taskauth.ErrTokenExpired,
		taskauth.ErrTokenNotYetValid,
		taskauth.ErrTokenWrongClass,
	}

	for _, err := range tokenErrors {
		assert.Equal(t, taskauth.ErrTokenMalformed.Message, err.Message)
		assert.True(t, taskauth.IsTokenError(err))
	}
}

func TestMintToken(t *testing.T) {
	service := newTestTokenService()
	identity := testIdentity()

	t.Run("defaults from the token service", func(t *testing.T) {
		token, expiresAt, err := taskauth.MintToken(service, identity, taskauth.TokenClassAccess, taskauth.TokenOptions{})
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

		claims, err := service.Validate(token, taskauth.TokenClassAccess)
		require.NoError(t, err)
		assert.Equal(t, identity.ID(), claims.Subject())
	})

	t.Run("refresh class uses the refresh TTL", func(t *testing.T) {
		_, expiresAt, err := taskauth.MintToken(service, identity, taskauth.TokenClassRefresh, taskauth.TokenOptions{})
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), expiresAt, 5*time.Second)
	})

	t.Run("ttl override", func(t *testing.T) {
		_, expiresAt, err := taskauth.MintToken(service, identity, taskauth.TokenClassAccess, taskauth.TokenOptions{
			TTL: time.Minute,
		})
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(time.Minute), expiresAt, 5*time.Second)
	})

	t.Run("negative ttl rejected", func(t *testing.T) {
		_, _, err := taskauth.MintToken(service, identity, taskauth.TokenClassAccess, taskauth.TokenOptions{
			TTL: -time.Minute,
		})
		assert.Error(t, err)
	})

	t.Run("nil token service rejected", func(t *testing.T) {
		_, _, err := taskauth.MintToken(nil, identity, taskauth.TokenClassAccess, taskauth.TokenOptions{})
		assert.Error(t, err)
	})

	t.Run("nil identity rejected", func(t *testing.T) {
		_, _, err := taskauth.MintToken(service, nil, taskauth.TokenClassAccess, taskauth.TokenOptions{})
		assert.Error(t, err)
	})
}
