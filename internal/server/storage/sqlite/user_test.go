package sqlite

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/boardsync/internal/models"
	"github.com/iudanet/boardsync/internal/server/storage"
)

func setupTestStorage(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	// Используем in-memory database для тестов
	s, err := New(ctx, slog.New(slog.NewTextHandler(io.Discard, nil)), ":memory:")
	require.NoError(t, err)

	cleanup := func() {
		_ = s.Close()
	}

	return s, cleanup
}

func createTestUser(t *testing.T, ctx context.Context, s *Storage, username string) *models.User {
	now := time.Now()
	user := &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: "hash",
		AvatarURL:    "https://example.com/" + username + ".png",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := s.CreateUser(ctx, user)
	require.NoError(t, err)
	return user
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
			user: &models.User{
				ID:           uuid.New().String(),
				Username:     "testuser1",
				PasswordHash: "hash123",
				CreatedAt:    time.Now(),
				UpdatedAt:    time.Now(),
			},
		},
		{
			name: "create user with avatar",
			user: &models.User{
				ID:           uuid.New().String(),
				Username:     "testuser2",
				PasswordHash: "hash456",
				AvatarURL:    "https://example.com/a.png",
				CreatedAt:    time.Now(),
				UpdatedAt:    time.Now(),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.CreateUser(ctx, tt.user)
			require.NoError(t, err)

			retrieved, err := s.GetUserByID(ctx, tt.user.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.user.ID, retrieved.ID)
			assert.Equal(t, tt.user.Username, retrieved.Username)
			assert.Equal(t, tt.user.PasswordHash, retrieved.PasswordHash)
			assert.Equal(t, tt.user.AvatarURL, retrieved.AvatarURL)
			assert.WithinDuration(t, tt.user.CreatedAt, retrieved.CreatedAt, time.Second)
		})
	}
}

func TestUserStorage_CreateUser_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	createTestUser(t, ctx, s, "duplicate")

	user2 := &models.User{
		ID:           uuid.New().String(),
		Username:     "duplicate",
		PasswordHash: "hash2",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	err := s.CreateUser(ctx, user2)
	assert.ErrorIs(t, err, storage.ErrUserAlreadyExists)
}

func TestUserStorage_GetUser(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := createTestUser(t, ctx, s, "findme")

	tests := []struct {
		wantError error
		get       func() (*models.User, error)
		name      string
	}{
		{
			name: "by username",
			get:  func() (*models.User, error) { return s.GetUserByUsername(ctx, "findme") },
		},
		{
			name: "by id",
			get:  func() (*models.User, error) { return s.GetUserByID(ctx, user.ID) },
		},
		{
			name:      "unknown username",
			get:       func() (*models.User, error) { return s.GetUserByUsername(ctx, "notfound") },
			wantError: storage.ErrUserNotFound,
		},
		{
			name:      "unknown id",
			get:       func() (*models.User, error) { return s.GetUserByID(ctx, "nonexistent-id") },
			wantError: storage.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retrieved, err := tt.get()
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				assert.Nil(t, retrieved)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, user.ID, retrieved.ID)
			assert.Equal(t, user.Username, retrieved.Username)
			assert.Equal(t, user.Profile(), retrieved.Profile())
		})
	}
}

func TestUserStorage_UpdateUser(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := createTestUser(t, ctx, s, "original")
	createTestUser(t, ctx, s, "taken")

	tests := []struct {
		wantError error
		updates   *models.User
		name      string
	}{
		{
			name: "update username and avatar",
			updates: &models.User{
				ID:        user.ID,
				Username:  "updated",
				AvatarURL: "https://example.com/new.png",
				UpdatedAt: time.Now(),
			},
		},
		{
			name: "username collision",
			updates: &models.User{
				ID:        user.ID,
				Username:  "taken",
				UpdatedAt: time.Now(),
			},
			wantError: storage.ErrUserAlreadyExists,
		},
		{
			name: "update non-existent user",
			updates: &models.User{
				ID:       "nonexistent",
				Username: "foo",
			},
			wantError: storage.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.UpdateUser(ctx, tt.updates)
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)

			retrieved, err := s.GetUserByID(ctx, tt.updates.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.updates.Username, retrieved.Username)
			assert.Equal(t, tt.updates.AvatarURL, retrieved.AvatarURL)
			assert.Equal(t, "hash", retrieved.PasswordHash, "password is not touched")
		})
	}
}
