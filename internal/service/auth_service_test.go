package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"teamiq/internal/model"
)

type fakeUserStore struct {
	users map[string]model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]model.User)}
}

func (f *fakeUserStore) FindByID(_ context.Context, id string) (model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserStore) FindByLogin(_ context.Context, login string) (model.User, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Username, login) || strings.EqualFold(u.Email, login) {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (f *fakeUserStore) ExistsByLogin(_ context.Context, email string, username string) (bool, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) || strings.EqualFold(u.Username, username) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserStore) Create(_ context.Context, u model.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserStore) UpdatePassword(_ context.Context, userID string, passwordHash string) error {
	u, ok := f.users[userID]
	if !ok {
		return model.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	f.users[userID] = u
	return nil
}

type fakeTokenEntry struct {
	userID    string
	expiresAt time.Time
}

type fakeTokenStore struct {
	tokens map[string]fakeTokenEntry
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: make(map[string]fakeTokenEntry)}
}

func (f *fakeTokenStore) Store(_ context.Context, token string, userID string, expiresAt time.Time) error {
	f.tokens[token] = fakeTokenEntry{userID: userID, expiresAt: expiresAt}
	return nil
}

func (f *fakeTokenStore) Validate(_ context.Context, token string) (string, error) {
	entry, ok := f.tokens[token]
	if !ok || entry.expiresAt.Before(time.Now()) {
		return "", model.ErrTokenNotFound
	}
	return entry.userID, nil
}

func (f *fakeTokenStore) Revoke(_ context.Context, token string) error {
	if _, ok := f.tokens[token]; !ok {
		return model.ErrTokenNotFound
	}
	delete(f.tokens, token)
	return nil
}

func (f *fakeTokenStore) RevokeAllForUser(_ context.Context, userID string) error {
	for token, entry := range f.tokens {
		if entry.userID == userID {
			delete(f.tokens, token)
		}
	}
	return nil
}

type fakeResetStore struct {
	entries map[string]fakeTokenEntry
}

func newFakeResetStore() *fakeResetStore {
	return &fakeResetStore{entries: make(map[string]fakeTokenEntry)}
}

func (f *fakeResetStore) Store(_ context.Context, tokenHash string, userID string, expiresAt time.Time) error {
	f.entries[tokenHash] = fakeTokenEntry{userID: userID, expiresAt: expiresAt}
	return nil
}

func (f *fakeResetStore) Consume(_ context.Context, tokenHash string) (string, error) {
	entry, ok := f.entries[tokenHash]
	if !ok || entry.expiresAt.Before(time.Now()) {
		return "", model.ErrTokenNotFound
	}
	delete(f.entries, tokenHash)
	return entry.userID, nil
}

func (f *fakeResetStore) DeleteForUser(_ context.Context, userID string) error {
	for hash, entry := range f.entries {
		if entry.userID == userID {
			delete(f.entries, hash)
		}
	}
	return nil
}

type authFixture struct {
	svc    *AuthService
	users  *fakeUserStore
	tokens *fakeTokenStore
	resets *fakeResetStore
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()

	users := newFakeUserStore()
	tokens := newFakeTokenStore()
	resets := newFakeResetStore()

	svc, err := NewAuthService("unit-test-secret", 15*time.Minute, time.Hour, 30*time.Minute,
		bcrypt.MinCost, users, tokens, resets)
	require.NoError(t, err)

	return authFixture{svc: svc, users: users, tokens: tokens, resets: resets}
}

func (fx authFixture) register(t *testing.T, username string, role string) model.TokenPair {
	t.Helper()

	pair, err := fx.svc.Register(context.Background(), model.RegisterRequest{
		Email:    username + "@example.com",
		Username: username,
		Password: "correct horse battery",
		FullName: "Test " + username,
		Role:     role,
	})
	require.NoError(t, err)
	return pair
}

func TestAuthServiceLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("valid credentials issue a bearer pair with the user summary", func(t *testing.T) {
		fx := newAuthFixture(t)
		fx.register(t, "ana", model.RoleEngineer)

		pair, err := fx.svc.Login(ctx, "ana", "correct horse battery")

		require.NoError(t, err)
		require.NotEmpty(t, pair.AccessToken)
		require.NotEmpty(t, pair.RefreshToken)
		require.Equal(t, "Bearer", pair.TokenType)
		require.Equal(t, int64(900), pair.ExpiresIn)
		require.Equal(t, "ana", pair.User.Username)
		require.Equal(t, model.RoleEngineer, pair.User.Role)

		claims, err := fx.svc.ValidateToken(pair.AccessToken, "access")
		require.NoError(t, err)
		require.Equal(t, pair.User.ID, claims.UserID)
		require.Equal(t, model.RoleEngineer, claims.Role)
	})

	t.Run("email works as the login identifier", func(t *testing.T) {
		fx := newAuthFixture(t)
		fx.register(t, "ana", model.RoleEngineer)

		_, err := fx.svc.Login(ctx, "ana@example.com", "correct horse battery")

		require.NoError(t, err)
	})

	t.Run("wrong password and unknown user fail identically", func(t *testing.T) {
		fx := newAuthFixture(t)
		fx.register(t, "ana", model.RoleEngineer)

		_, badPassword := fx.svc.Login(ctx, "ana", "nope")
		_, unknownUser := fx.svc.Login(ctx, "nobody", "nope")

		require.ErrorIs(t, badPassword, model.ErrInvalidCredentials)
		require.ErrorIs(t, unknownUser, model.ErrInvalidCredentials)
	})

	t.Run("deactivated accounts cannot log in", func(t *testing.T) {
		fx := newAuthFixture(t)
		pair := fx.register(t, "ana", model.RoleEngineer)

		u := fx.users.users[pair.User.ID]
		u.IsActive = false
		fx.users.users[u.ID] = u

		_, err := fx.svc.Login(ctx, "ana", "correct horse battery")

		require.ErrorIs(t, err, model.ErrAccountDisabled)
	})
}

func TestAuthServiceRegister(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("empty role defaults to intern", func(t *testing.T) {
		fx := newAuthFixture(t)

		pair := fx.register(t, "newbie", "")

		require.Equal(t, model.RoleIntern, pair.User.Role)
	})

	t.Run("duplicate username is rejected", func(t *testing.T) {
		fx := newAuthFixture(t)
		fx.register(t, "ana", model.RoleEngineer)

		_, err := fx.svc.Register(ctx, model.RegisterRequest{
			Email:    "other@example.com",
			Username: "ana",
			Password: "correct horse battery",
		})

		require.ErrorIs(t, err, model.ErrUserAlreadyExists)
	})

	t.Run("short passwords are rejected", func(t *testing.T) {
		fx := newAuthFixture(t)

		_, err := fx.svc.Register(ctx, model.RegisterRequest{
			Email:    "ana@example.com",
			Username: "ana",
			Password: "short",
		})

		require.Error(t, err)
	})

	t.Run("made-up roles are rejected", func(t *testing.T) {
		fx := newAuthFixture(t)

		_, err := fx.svc.Register(ctx, model.RegisterRequest{
			Email:    "ana@example.com",
			Username: "ana",
			Password: "correct horse battery",
			Role:     "wizard",
		})

		require.Error(t, err)
	})
}

func TestAuthServiceRefresh(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("rotation revokes the presented token", func(t *testing.T) {
		fx := newAuthFixture(t)
		pair := fx.register(t, "ana", model.RoleEngineer)

		next, err := fx.svc.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)
		require.NotEqual(t, pair.RefreshToken, next.RefreshToken)

		// The old token was rotated out; replaying it has to fail.
		_, err = fx.svc.Refresh(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, model.ErrTokenNotFound)
	})

	t.Run("an access token is not accepted as a refresh token", func(t *testing.T) {
		fx := newAuthFixture(t)
		pair := fx.register(t, "ana", model.RoleEngineer)

		_, err := fx.svc.Refresh(ctx, pair.AccessToken)

		require.ErrorIs(t, err, model.ErrTokenNotFound)
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		fx := newAuthFixture(t)

		_, err := fx.svc.Refresh(ctx, "not-a-jwt")

		require.ErrorIs(t, err, model.ErrTokenNotFound)
	})
}

func TestAuthServiceLogout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("logout revokes the refresh token", func(t *testing.T) {
		fx := newAuthFixture(t)
		pair := fx.register(t, "ana", model.RoleEngineer)

		fx.svc.Logout(ctx, pair.RefreshToken)

		_, err := fx.svc.Refresh(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, model.ErrTokenNotFound)
	})

	t.Run("logout with an unknown token is quiet", func(t *testing.T) {
		fx := newAuthFixture(t)

		fx.svc.Logout(ctx, "already-gone")
		fx.svc.Logout(ctx, "")
	})
}

func TestAuthServicePasswordReset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("unknown addresses get no token and no error", func(t *testing.T) {
		fx := newAuthFixture(t)

		token, err := fx.svc.RequestPasswordReset(ctx, "ghost@example.com")

		require.NoError(t, err)
		require.Empty(t, token)
		require.Empty(t, fx.resets.entries)
	})

	t.Run("the full reset flow changes the password and cuts sessions", func(t *testing.T) {
		fx := newAuthFixture(t)
		pair := fx.register(t, "ana", model.RoleEngineer)

		token, err := fx.svc.RequestPasswordReset(ctx, "ana@example.com")
		require.NoError(t, err)
		require.NotEmpty(t, token)

		require.NoError(t, fx.svc.ConfirmPasswordReset(ctx, token, "brand new password"))

		_, err = fx.svc.Login(ctx, "ana", "brand new password")
		require.NoError(t, err)
		_, err = fx.svc.Login(ctx, "ana", "correct horse battery")
		require.ErrorIs(t, err, model.ErrInvalidCredentials)

		// Sessions from before the reset are dead.
		_, err = fx.svc.Refresh(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, model.ErrTokenNotFound)

		// The token is one-shot.
		err = fx.svc.ConfirmPasswordReset(ctx, token, "another password")
		require.ErrorIs(t, err, model.ErrTokenNotFound)
	})
}

func TestAuthServiceChangePassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("requires the current password", func(t *testing.T) {
		fx := newAuthFixture(t)
		pair := fx.register(t, "ana", model.RoleEngineer)

		err := fx.svc.ChangePassword(ctx, pair.User.ID, "wrong", "brand new password")

		require.ErrorIs(t, err, model.ErrInvalidCredentials)
	})

	t.Run("success rotates credentials and revokes sessions", func(t *testing.T) {
		fx := newAuthFixture(t)
		pair := fx.register(t, "ana", model.RoleEngineer)

		err := fx.svc.ChangePassword(ctx, pair.User.ID, "correct horse battery", "brand new password")
		require.NoError(t, err)

		_, err = fx.svc.Login(ctx, "ana", "brand new password")
		require.NoError(t, err)

		_, err = fx.svc.Refresh(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, model.ErrTokenNotFound)
	})
}
