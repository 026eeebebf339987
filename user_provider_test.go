package taskauth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-taskauth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testUser(t *testing.T, password string) *taskauth.User {
	t.Helper()
	hash, err := taskauth.HashPassword(password)
	require.NoError(t, err)
	return &taskauth.User{
		ID:           uuid.New(),
		FullName:     "Test User",
		Email:        "test@example.com",
		PasswordHash: hash,
		Role:         taskauth.RoleMember,
		IsActive:     true,
	}
}

func TestUserProviderVerifyIdentity(t *testing.T) {
	ctx := context.Background()

	t.Run("Successful verification", func(t *testing.T) {
		user := testUser(t, "password123")
		store := new(MockUserStore)
		store.On("GetByEmail", ctx, "test@example.com").Return(user, nil).Once()
		store.On("TrackSuccessfulLogin", ctx, user).Return(nil).Once()

		provider := taskauth.NewUserProvider(store)

		identity, err := provider.VerifyIdentity(ctx, "test@example.com", "password123")

		require.NoError(t, err)
		require.NotNil(t, identity)
		assert.Equal(t, user.ID.String(), identity.ID())
		assert.Equal(t, "test@example.com", identity.Email())
		assert.Equal(t, taskauth.RoleMember, identity.Role())
		assert.True(t, identity.Active())

		store.AssertExpectations(t)
	})

	t.Run("Invalid password tracks the attempt", func(t *testing.T) {
		user := testUser(t, "correct_password")
		store := new(MockUserStore)
		store.On("GetByEmail", ctx, "test@example.com").Return(user, nil).Once()
		store.On("TrackAttemptedLogin", ctx, user).Return(nil).Once()

		provider := taskauth.NewUserProvider(store)

		identity, err := provider.VerifyIdentity(ctx, "test@example.com", "wrong_password")

		assert.Nil(t, identity)
		assert.ErrorIs(t, err, taskauth.ErrMismatchedHashAndPassword)

		store.AssertExpectations(t)
	})

	t.Run("User not found reads like a wrong password", func(t *testing.T) {
		store := new(MockUserStore)
		store.On("GetByEmail", ctx, "nonexistent@example.com").
			Return(nil, repository.NewRecordNotFound()).Once()

		provider := taskauth.NewUserProvider(store)

		identity, notFoundErr := provider.VerifyIdentity(ctx, "nonexistent@example.com", "password123")

		assert.Nil(t, identity)
		assert.ErrorIs(t, notFoundErr, taskauth.ErrMismatchedHashAndPassword)

		// same sentinel as the wrong password path, so the two are
		// indistinguishable to a caller probing for accounts
		user := testUser(t, "correct_password")
		store.On("GetByEmail", ctx, "test@example.com").Return(user, nil).Once()
		store.On("TrackAttemptedLogin", ctx, user).Return(nil).Once()

		_, wrongPasswordErr := provider.VerifyIdentity(ctx, "test@example.com", "wrong_password")
		assert.Equal(t, wrongPasswordErr.Error(), notFoundErr.Error())

		store.AssertExpectations(t)
	})

	t.Run("Nil user without error reads like a wrong password", func(t *testing.T) {
		store := new(MockUserStore)
		store.On("GetByEmail", ctx, "ghost@example.com").Return(nil, nil).Once()

		provider := taskauth.NewUserProvider(store)

		identity, err := provider.VerifyIdentity(ctx, "ghost@example.com", "password123")

		assert.Nil(t, identity)
		assert.ErrorIs(t, err, taskauth.ErrMismatchedHashAndPassword)
	})

	t.Run("Too many login attempts", func(t *testing.T) {
		now := time.Now()
		user := testUser(t, "password123")
		user.LoginAttempts = taskauth.MaxLoginAttempts + 1
		user.LoginAttemptAt = &now

		store := new(MockUserStore)
		store.On("GetByEmail", ctx, "test@example.com").Return(user, nil).Once()

		provider := taskauth.NewUserProvider(store)

		identity, err := provider.VerifyIdentity(ctx, "test@example.com", "password123")

		assert.Nil(t, identity)
		assert.ErrorIs(t, err, taskauth.ErrTooManyLoginAttempts)

		// the password is never compared while the account is cooling down
		store.AssertNotCalled(t, "TrackAttemptedLogin", mock.Anything, mock.Anything)
		store.AssertExpectations(t)
	})

	t.Run("Login attempts cooldown expired", func(t *testing.T) {
		oldAttempt := time.Now().Add(-48 * time.Hour)
		user := testUser(t, "password123")
		user.LoginAttempts = taskauth.MaxLoginAttempts + 1
		user.LoginAttemptAt = &oldAttempt

		store := new(MockUserStore)
		store.On("GetByEmail", ctx, "test@example.com").Return(user, nil).Once()
		store.On("TrackSuccessfulLogin", ctx, mock.MatchedBy(func(u *taskauth.User) bool {
			return u.ID == user.ID && u.LoginAttempts == 0 // attempts reset
		})).Return(nil).Once()

		provider := taskauth.NewUserProvider(store)

		identity, err := provider.VerifyIdentity(ctx, "test@example.com", "password123")

		require.NoError(t, err)
		require.NotNil(t, identity)
		assert.Equal(t, user.ID.String(), identity.ID())

		store.AssertExpectations(t)
	})

	t.Run("Inactive account revealed only after the password matched", func(t *testing.T) {
		user := testUser(t, "password123")
		user.IsActive = false

		store := new(MockUserStore)
		store.On("GetByEmail", ctx, "test@example.com").Return(user, nil).Twice()
		store.On("TrackAttemptedLogin", ctx, user).Return(nil).Once()

		provider := taskauth.NewUserProvider(store)

		_, wrongErr := provider.VerifyIdentity(ctx, "test@example.com", "wrong_password")
		assert.ErrorIs(t, wrongErr, taskauth.ErrMismatchedHashAndPassword)

		_, correctErr := provider.VerifyIdentity(ctx, "test@example.com", "password123")
		assert.ErrorIs(t, correctErr, taskauth.ErrAccountInactive)

		store.AssertExpectations(t)
	})

	t.Run("Tracking failure on success does not block login", func(t *testing.T) {
		user := testUser(t, "password123")
		store := new(MockUserStore)
		store.On("GetByEmail", ctx, "test@example.com").Return(user, nil).Once()
		store.On("TrackSuccessfulLogin", ctx, user).Return(errors.New("db write failed")).Once()

		provider := taskauth.NewUserProvider(store)

		identity, err := provider.VerifyIdentity(ctx, "test@example.com", "password123")

		assert.NoError(t, err)
		assert.NotNil(t, identity)
	})
}

func TestUserProviderFindIdentityByID(t *testing.T) {
	ctx := context.Background()

	t.Run("User found", func(t *testing.T) {
		user := testUser(t, "password123")
		store := new(MockUserStore)
		store.On("GetByIdentifier", ctx, user.ID.String()).Return(user, nil).Once()

		provider := taskauth.NewUserProvider(store)

		identity, err := provider.FindIdentityByID(ctx, user.ID.String())

		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), identity.ID())
		assert.Equal(t, user.Email, identity.Email())

		store.AssertExpectations(t)
	})

	t.Run("Inactive user is still returned", func(t *testing.T) {
		user := testUser(t, "password123")
		user.IsActive = false

		store := new(MockUserStore)
		store.On("GetByIdentifier", ctx, user.ID.String()).Return(user, nil).Once()

		provider := taskauth.NewUserProvider(store)

		identity, err := provider.FindIdentityByID(ctx, user.ID.String())

		require.NoError(t, err)
		assert.False(t, identity.Active())
	})

	t.Run("User not found", func(t *testing.T) {
		store := new(MockUserStore)
		store.On("GetByIdentifier", ctx, "missing-id").
			Return(nil, repository.NewRecordNotFound()).Once()

		provider := taskauth.NewUserProvider(store)

		identity, err := provider.FindIdentityByID(ctx, "missing-id")

		assert.Nil(t, identity)
		assert.ErrorIs(t, err, taskauth.ErrIdentityNotFound)
	})

	t.Run("Invalid role", func(t *testing.T) {
		user := testUser(t, "password123")
		user.Role = "invalid_role"

		store := new(MockUserStore)
		store.On("GetByIdentifier", ctx, user.ID.String()).Return(user, nil).Once()

		provider := taskauth.NewUserProvider(store)

		identity, err := provider.FindIdentityByID(ctx, user.ID.String())

		assert.Nil(t, identity)
		assert.Error(t, err)
	})
}

func TestUserProviderValidation(t *testing.T) {
	store := new(MockUserStore)
	provider := taskauth.NewUserProvider(store)

	for _, role := range taskauth.GetAllRoles() {
		t.Run("Valid role: "+role, func(t *testing.T) {
			user := &taskauth.User{
				ID:    uuid.New(),
				Email: "test@example.com",
				Role:  role,
			}

			err := provider.Validator(user)
			assert.NoError(t, err)
		})
	}

	t.Run("Invalid role", func(t *testing.T) {
		user := &taskauth.User{
			ID:    uuid.New(),
			Email: "test@example.com",
			Role:  "invalid_role",
		}

		err := provider.Validator(user)
		assert.Error(t, err)
	})

	t.Run("Custom validator", func(t *testing.T) {
		customErr := errors.New("custom validation error")
		provider := taskauth.NewUserProvider(store)
		provider.Validator = func(u *taskauth.User) error {
			return customErr
		}

		user := &taskauth.User{
			ID:    uuid.New(),
			Email: "test@example.com",
		}

		err := provider.Validator(user)
		assert.Equal(t, customErr, err)
	})
}
