package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/boardsync/internal/clock"
	"github.com/iudanet/boardsync/internal/models"
	"github.com/iudanet/boardsync/internal/realtime/dispatch"
	"github.com/iudanet/boardsync/internal/realtime/events"
	"github.com/iudanet/boardsync/internal/realtime/rooms"
	"github.com/iudanet/boardsync/internal/server/storage/boltdb"
)

type failingStore struct{}

func (failingStore) SaveNotification(ctx context.Context, n *models.Notification) error {
	return errors.New("disk full")
}

func (failingStore) ListNotifications(ctx context.Context, userID string, limit int) ([]*models.Notification, error) {
	return nil, nil
}

func (failingStore) MarkRead(ctx context.Context, userID, notificationID string) error { return nil }

func setup(t *testing.T) (*Service, *rooms.Registry, *dispatch.Dispatcher) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "inbox.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	registry := rooms.New(logger)
	d := dispatch.New(logger, registry, clock.New())
	return New(logger, store, d), registry, d
}

func TestService_Notify(t *testing.T) {
	svc, registry, d := setup(t)
	ctx := context.Background()

	tab1 := dispatch.NewOutbox("tab1", 8)
	tab2 := dispatch.NewOutbox("tab2", 8)
	for _, o := range []*dispatch.Outbox{tab1, tab2} {
		d.Attach(o)
		require.NoError(t, registry.Join(o.ID(), rooms.User("alice")))
	}

	n := &models.Notification{UserID: "alice", Kind: "member:added", BoardID: "b1", Message: "bob added you"}
	require.NoError(t, svc.Notify(ctx, "bob", n))
	assert.NotEmpty(t, n.ID)

	for _, o := range []*dispatch.Outbox{tab1, tab2} {
		require.Equal(t, 1, o.Len())
		f, err := events.DecodeFrame(<-o.C())
		require.NoError(t, err)
		assert.Equal(t, events.TypeNotificationNew, f.Type)
		assert.Equal(t, "user:alice", f.Room)
		assert.Equal(t, "bob", f.OriginUserID)
	}

	stored, err := svc.List(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, n.ID, stored[0].ID)

	require.NoError(t, svc.MarkRead(ctx, "alice", n.ID))
}

func TestService_NotifyOfflineUser(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	require.NoError(t, svc.Notify(ctx, "bob", &models.Notification{UserID: "carol", Message: "later"}))

	stored, err := svc.List(ctx, "carol", 0)
	require.NoError(t, err)
	assert.Len(t, stored, 1, "inbox keeps notifications for offline users")
}

func TestService_NotifyStoreFailure(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := rooms.New(logger)
	d := dispatch.New(logger, registry, clock.New())
	svc := New(logger, failingStore{}, d)

	err := svc.Notify(context.Background(), "bob", &models.Notification{UserID: "alice"})
	require.Error(t, err)
	assert.Equal(t, uint64(0), d.Stats().Published, "nothing is published when saving fails")
}
