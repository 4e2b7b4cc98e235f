package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/iudanet/boardsync/internal/ordering"
	"github.com/iudanet/boardsync/internal/realtime/session"
	"github.com/iudanet/boardsync/internal/server/storage"
	"github.com/iudanet/boardsync/internal/validation"
	"github.com/iudanet/boardsync/pkg/api"
)

// maxBodySize ограничение размера тела запроса
const maxBodySize = 1 << 20

// responder общие методы ответа для всех обработчиков
type responder struct {
	logger *slog.Logger
}

// sendJSON отправляет JSON ответ
func (h responder) sendJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError отправляет JSON ответ с ошибкой
func (h responder) sendError(w http.ResponseWriter, message string, statusCode int) {
	resp := api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	h.sendJSON(w, resp, statusCode)
}

// decode читает JSON тело запроса. При ошибке уже ответил 400.
func (h responder) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(dst); err != nil {
		h.logger.WarnContext(r.Context(), "failed to decode request body",
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// currentUser возвращает пользователя, установленного AuthMiddleware
func (h responder) currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		h.logger.ErrorContext(r.Context(), "user ID not found in context")
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}

// fail переводит ошибку домена в HTTP статус.
// Детали внутренних ошибок клиенту не отдаются.
func (h responder) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, message := classify(err)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
	} else {
		h.logger.DebugContext(r.Context(), "request rejected",
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.Any("error", err))
	}
	h.sendError(w, message, status)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, validation.ErrInvalid),
		errors.Is(err, session.ErrBadRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, ordering.ErrInvalidIndex),
		errors.Is(err, ordering.ErrDuplicateID):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, session.ErrAccessDenied):
		return http.StatusForbidden, "access denied"
	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, storage.ErrBoardNotFound):
		return http.StatusNotFound, "board not found"
	case errors.Is(err, storage.ErrListNotFound):
		return http.StatusNotFound, "list not found"
	case errors.Is(err, storage.ErrCardNotFound):
		return http.StatusNotFound, "card not found"
	case errors.Is(err, storage.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, storage.ErrMemberNotFound):
		return http.StatusNotFound, "member not found"
	case errors.Is(err, storage.ErrNotificationNotFound):
		return http.StatusNotFound, "notification not found"
	case errors.Is(err, storage.ErrMemberAlreadyExists):
		return http.StatusConflict, "user is already a member of the board"
	case errors.Is(err, storage.ErrUserAlreadyExists):
		return http.StatusConflict, "username already taken"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
