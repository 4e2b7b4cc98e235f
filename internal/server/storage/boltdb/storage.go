// Package boltdb хранит персональные уведомления пользователей в BoltDB.
//
// Уведомления лежат во вложенном bucket на каждого пользователя,
// ключ - UUIDv7, поэтому порядок ключей совпадает с порядком создания.
package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/iudanet/boardsync/internal/models"
	"github.com/iudanet/boardsync/internal/server/storage"
)

var bucketNotifications = []byte("notifications")

// Storage represents BoltDB notification inbox
type Storage struct {
	db *bbolt.DB
}

// New creates a new BoltDB storage instance
// dbPath is the path to the BoltDB database file
func New(ctx context.Context, dbPath string) (*Storage, error) {
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketNotifications)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveNotification сохраняет уведомление. Пустые ID и CreatedAt заполняются.
func (s *Storage) SaveNotification(ctx context.Context, n *models.Notification) error {
	if n.UserID == "" {
		return fmt.Errorf("notification without recipient")
	}

	if n.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate notification id: %w", err)
		}
		n.ID = id.String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		inbox, err := tx.Bucket(bucketNotifications).CreateBucketIfNotExists([]byte(n.UserID))
		if err != nil {
			return fmt.Errorf("failed to create inbox: %w", err)
		}

		if err := inbox.Put([]byte(n.ID), data); err != nil {
			return fmt.Errorf("failed to save notification: %w", err)
		}
		return nil
	})
}

// ListNotifications возвращает до limit последних уведомлений, новые первыми.
// limit <= 0 означает все.
func (s *Storage) ListNotifications(ctx context.Context, userID string, limit int) ([]*models.Notification, error) {
	notifications := make([]*models.Notification, 0)

	err := s.db.View(func(tx *bbolt.Tx) error {
		inbox := tx.Bucket(bucketNotifications).Bucket([]byte(userID))
		if inbox == nil {
			return nil
		}

		c := inbox.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(notifications) >= limit {
				break
			}

			n := &models.Notification{}
			if err := json.Unmarshal(v, n); err != nil {
				return fmt.Errorf("failed to unmarshal notification %s: %w", k, err)
			}
			notifications = append(notifications, n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return notifications, nil
}

// MarkRead помечает уведомление прочитанным
func (s *Storage) MarkRead(ctx context.Context, userID, notificationID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		inbox := tx.Bucket(bucketNotifications).Bucket([]byte(userID))
		if inbox == nil {
			return storage.ErrNotificationNotFound
		}

		data := inbox.Get([]byte(notificationID))
		if data == nil {
			return storage.ErrNotificationNotFound
		}

		n := &models.Notification{}
		if err := json.Unmarshal(data, n); err != nil {
			return fmt.Errorf("failed to unmarshal notification: %w", err)
		}
		if n.Read {
			return nil
		}
		n.Read = true

		updated, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("failed to marshal notification: %w", err)
		}
		return inbox.Put([]byte(notificationID), updated)
	})
}
