package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/cmsauth/internal/models"
	"github.com/iudanet/cmsauth/internal/server/storage"
)

func setupTestStorage(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	// Используем in-memory database для тестов
	s, err := New(ctx, ":memory:")
	require.NoError(t, err)

	cleanup := func() {
		_ = s.Close()
	}

	return s, cleanup
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func newTestUser(username, email string) *models.User {
	now := time.Now().UTC().Truncate(time.Second)
	return &models.User{
		Username:       username,
		Email:          email,
		FirstName:      "Test",
		LastName:       "User",
		HashedPassword: "$2a$04$hash-for-" + username,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestUserStorage_CreateUser(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	tests := []struct {
		user *models.User
		name string
	}{
		{
			name: "create new user successfully",
			user: newTestUser("testuser1", "one@example.com"),
		},
		{
			name: "create admin with last login",
			user: func() *models.User {
				u := newTestUser("testuser2", "two@example.com")
				u.IsAdmin = true
				u.IsSuperuser = true
				u.LastLogin = timePtr(time.Now())
				return u
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.CreateUser(ctx, tt.user)
			require.NoError(t, err)
			assert.NotZero(t, tt.user.ID)

			// Verify user was created
			retrieved, err := s.GetUserByID(ctx, tt.user.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.user.ID, retrieved.ID)
			assert.Equal(t, tt.user.Username, retrieved.Username)
			assert.Equal(t, tt.user.Email, retrieved.Email)
			assert.Equal(t, tt.user.FirstName, retrieved.FirstName)
			assert.Equal(t, tt.user.LastName, retrieved.LastName)
			assert.Equal(t, tt.user.HashedPassword, retrieved.HashedPassword)
			assert.Equal(t, tt.user.IsActive, retrieved.IsActive)
			assert.Equal(t, tt.user.IsAdmin, retrieved.IsAdmin)
			assert.Equal(t, tt.user.IsSuperuser, retrieved.IsSuperuser)
			assert.True(t, tt.user.CreatedAt.Equal(retrieved.CreatedAt))
			assert.Equal(t, tt.user.LastLogin != nil, retrieved.LastLogin != nil)
		})
	}
}

func TestUserStorage_CreateUser_AssignsIncreasingIDs(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	first := newTestUser("first", "first@example.com")
	second := newTestUser("second", "second@example.com")
	require.NoError(t, s.CreateUser(ctx, first))
	require.NoError(t, s.CreateUser(ctx, second))

	assert.Greater(t, second.ID, first.ID)
}

func TestUserStorage_CreateUser_Duplicates(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	original := newTestUser("duplicate", "dup@example.com")
	require.NoError(t, s.CreateUser(ctx, original))

	tests := []struct {
		user      *models.User
		name      string
		wantField string
	}{
		{
			name:      "same username",
			user:      newTestUser("duplicate", "other@example.com"),
			wantField: "username",
		},
		{
			name:      "same email",
			user:      newTestUser("another", "dup@example.com"),
			wantField: "email",
		},
		{
			name:      "same email different case",
			user:      newTestUser("third", "DUP@example.com"),
			wantField: "email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.CreateUser(ctx, tt.user)
			assert.ErrorIs(t, err, storage.ErrUserAlreadyExists)
			assert.Contains(t, err.Error(), tt.wantField)
		})
	}

	// Первая запись не изменилась
	stored, err := s.GetUserByUsername(ctx, "duplicate")
	require.NoError(t, err)
	assert.Equal(t, original.ID, stored.ID)
	assert.Equal(t, "dup@example.com", stored.Email)
	assert.Equal(t, original.HashedPassword, stored.HashedPassword)
}

func TestUserStorage_GetUser(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := newTestUser("findme", "findme@example.com")
	require.NoError(t, s.CreateUser(ctx, user))

	t.Run("by username", func(t *testing.T) {
		got, err := s.GetUserByUsername(ctx, "findme")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Nil(t, got.LastLogin)
	})

	t.Run("username is case sensitive", func(t *testing.T) {
		_, err := s.GetUserByUsername(ctx, "FINDME")
		assert.ErrorIs(t, err, storage.ErrUserNotFound)
	})

	t.Run("by email ignoring case", func(t *testing.T) {
		got, err := s.GetUserByEmail(ctx, "FindMe@Example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("unknown username", func(t *testing.T) {
		got, err := s.GetUserByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, storage.ErrUserNotFound)
		assert.Nil(t, got)
	})

	t.Run("unknown id", func(t *testing.T) {
		got, err := s.GetUserByID(ctx, 9999)
		assert.ErrorIs(t, err, storage.ErrUserNotFound)
		assert.Nil(t, got)
	})
}

func TestUserStorage_UpdateLastLogin(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := newTestUser("loginuser", "login@example.com")
	require.NoError(t, s.CreateUser(ctx, user))

	loginTime := user.CreatedAt.Add(time.Hour)
	require.NoError(t, s.UpdateLastLogin(ctx, user.ID, loginTime))

	got, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLogin)
	assert.True(t, got.LastLogin.Equal(loginTime), "last_login %v != %v", got.LastLogin, loginTime)
	assert.True(t, got.UpdatedAt.Equal(loginTime))
	assert.True(t, got.CreatedAt.Equal(user.CreatedAt))

	err = s.UpdateLastLogin(ctx, 9999, loginTime)
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestStorage_RunInTx(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	t.Run("commit on success", func(t *testing.T) {
		err := s.RunInTx(ctx, func(ctx context.Context, repo storage.UserRepository) error {
			return repo.CreateUser(ctx, newTestUser("committed", "committed@example.com"))
		})
		require.NoError(t, err)

		_, err = s.GetUserByUsername(ctx, "committed")
		assert.NoError(t, err)
	})

	t.Run("rollback on error", func(t *testing.T) {
		errBoom := errors.New("boom")
		err := s.RunInTx(ctx, func(ctx context.Context, repo storage.UserRepository) error {
			if err := repo.CreateUser(ctx, newTestUser("rolledback", "rolledback@example.com")); err != nil {
				return err
			}
			return errBoom
		})
		assert.ErrorIs(t, err, errBoom)

		_, err = s.GetUserByUsername(ctx, "rolledback")
		assert.ErrorIs(t, err, storage.ErrUserNotFound)
	})

	t.Run("rollback on panic", func(t *testing.T) {
		assert.Panics(t, func() {
			_ = s.RunInTx(ctx, func(ctx context.Context, repo storage.UserRepository) error {
				if err := repo.CreateUser(ctx, newTestUser("panicked", "panicked@example.com")); err != nil {
					return err
				}
				panic("unexpected")
			})
		})

		// Соединение освобождено, хранилище продолжает работать
		_, err := s.GetUserByUsername(ctx, "panicked")
		assert.ErrorIs(t, err, storage.ErrUserNotFound)
	})

	t.Run("reads inside transaction see own writes", func(t *testing.T) {
		err := s.RunInTx(ctx, func(ctx context.Context, repo storage.UserRepository) error {
			if err := repo.CreateUser(ctx, newTestUser("visible", "visible@example.com")); err != nil {
				return err
			}
			_, err := repo.GetUserByEmail(ctx, "visible@example.com")
			return err
		})
		assert.NoError(t, err)
	})
}

func TestStorage_Ping(t *testing.T) {
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	assert.NoError(t, s.Ping(context.Background()))
}
