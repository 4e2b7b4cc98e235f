package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/iudanet/boardsync/internal/models"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 200
)

// NotificationService входящие уведомления пользователя
type NotificationService interface {
	List(ctx context.Context, userID string, limit int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
}

// NotificationHandler обрабатывает запросы к inbox уведомлений
type NotificationHandler struct {
	responder
	notifications NotificationService
}

// NewNotificationHandler создает handler уведомлений
func NewNotificationHandler(logger *slog.Logger, notifications NotificationService) *NotificationHandler {
	return &NotificationHandler{
		responder:     responder{logger: logger},
		notifications: notifications,
	}
}

// List обрабатывает GET /api/v1/notifications?limit=N
// Новые уведомления первыми
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	limit := defaultNotificationLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.sendError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxNotificationLimit)
	}

	items, err := h.notifications.List(r.Context(), userID, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if items == nil {
		items = []*models.Notification{}
	}
	h.sendJSON(w, items, http.StatusOK)
}

// MarkRead обрабатывает POST /api/v1/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	if err := h.notifications.MarkRead(r.Context(), userID, r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
