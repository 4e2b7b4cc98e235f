// Package notify сохраняет персональные уведомления и доставляет их
// во все сессии получателя через комнату user:{id}.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/iudanet/boardsync/internal/models"
	"github.com/iudanet/boardsync/internal/realtime/dispatch"
	"github.com/iudanet/boardsync/internal/realtime/events"
	"github.com/iudanet/boardsync/internal/server/storage"
)

// Publisher публикация событий
type Publisher interface {
	Publish(env events.Envelope) dispatch.Result
}

// Service сервис уведомлений
type Service struct {
	logger    *slog.Logger
	store     storage.NotificationStorage
	publisher Publisher
}

// New создает сервис уведомлений.
func New(logger *slog.Logger, store storage.NotificationStorage, publisher Publisher) *Service {
	return &Service{
		logger:    logger,
		store:     store,
		publisher: publisher,
	}
}

// Notify сохраняет уведомление и публикует notification:new.
// originUserID пользователь, действие которого вызвало уведомление.
func (s *Service) Notify(ctx context.Context, originUserID string, n *models.Notification) error {
	if err := s.store.SaveNotification(ctx, n); err != nil {
		return fmt.Errorf("save notification: %w", err)
	}

	res := s.publisher.Publish(events.ToUser(n.UserID, originUserID, events.NotificationNew{Notification: *n}))
	s.logger.Debug("notification published",
		"user_id", n.UserID,
		"kind", n.Kind,
		"delivered", res.Delivered)
	return nil
}

// List возвращает уведомления пользователя.
func (s *Service) List(ctx context.Context, userID string, limit int) ([]*models.Notification, error) {
	return s.store.ListNotifications(ctx, userID, limit)
}

// MarkRead помечает уведомление прочитанным.
func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	return s.store.MarkRead(ctx, userID, notificationID)
}
