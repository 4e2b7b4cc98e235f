package boltdb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/boardsync/internal/models"
	"github.com/iudanet/boardsync/internal/server/storage"
)

func setupTestStorage(t *testing.T) *Storage {
	t.Helper()

	store, err := New(context.Background(), filepath.Join(t.TempDir(), "inbox.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func TestNew_Success(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "testdb.db")

	store, err := New(context.Background(), dbPath)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, store.Close())
	}()

	info, err := os.Stat(dbPath)
	require.NoError(t, err)
	assert.False(t, info.IsDir())
}

func TestNew_InvalidPath(t *testing.T) {
	store, err := New(context.Background(), filepath.Join(t.TempDir(), "missing", "dir", "inbox.db"))
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestStorage_SaveAndList(t *testing.T) {
	ctx := context.Background()
	store := setupTestStorage(t)

	for i := range 5 {
		n := &models.Notification{
			UserID:  "alice",
			Kind:    "member:added",
			BoardID: "b1",
			Message: fmt.Sprintf("message %d", i),
		}
		require.NoError(t, store.SaveNotification(ctx, n))
		assert.NotEmpty(t, n.ID)
		assert.False(t, n.CreatedAt.IsZero())
	}
	require.NoError(t, store.SaveNotification(ctx, &models.Notification{UserID: "bob", Message: "other"}))

	tests := []struct {
		name      string
		userID    string
		wantFirst string
		limit     int
		wantLen   int
	}{
		{name: "all newest first", userID: "alice", limit: 0, wantLen: 5, wantFirst: "message 4"},
		{name: "limited", userID: "alice", limit: 2, wantLen: 2, wantFirst: "message 4"},
		{name: "other inbox", userID: "bob", limit: 10, wantLen: 1, wantFirst: "other"},
		{name: "empty inbox", userID: "carol", limit: 10, wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ListNotifications(ctx, tt.userID, tt.limit)
			require.NoError(t, err)
			require.NotNil(t, got)
			require.Len(t, got, tt.wantLen)
			if tt.wantLen > 0 {
				assert.Equal(t, tt.wantFirst, got[0].Message)
			}
		})
	}
}

func TestStorage_SaveWithoutRecipient(t *testing.T) {
	store := setupTestStorage(t)
	err := store.SaveNotification(context.Background(), &models.Notification{Message: "lost"})
	assert.Error(t, err)
}

func TestStorage_MarkRead(t *testing.T) {
	ctx := context.Background()
	store := setupTestStorage(t)

	n := &models.Notification{UserID: "alice", Message: "hello"}
	require.NoError(t, store.SaveNotification(ctx, n))

	require.NoError(t, store.MarkRead(ctx, "alice", n.ID))
	require.NoError(t, store.MarkRead(ctx, "alice", n.ID), "repeated mark is a no-op")

	got, err := store.ListNotifications(ctx, "alice", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Read)

	assert.ErrorIs(t, store.MarkRead(ctx, "alice", "missing"), storage.ErrNotificationNotFound)
	assert.ErrorIs(t, store.MarkRead(ctx, "bob", n.ID), storage.ErrNotificationNotFound, "foreign inbox")
}
