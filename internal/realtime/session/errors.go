package session

import (
	"errors"

	"github.com/iudanet/boardsync/internal/realtime/events"
)

var (
	// ErrUnauthorized нет проверенной личности (сессия не аутентифицирована или токен неверен)
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAccessDenied пользователь не является участником доски
	ErrAccessDenied = errors.New("access denied")

	// ErrNotFound доска или сущность не найдена
	ErrNotFound = errors.New("not found")

	// ErrBadRequest некорректное сообщение клиента
	ErrBadRequest = errors.New("bad request")

	// ErrClosed сессия закрыта
	ErrClosed = errors.New("session closed")
)

// Коды ошибок в событии error
const (
	CodeUnauthorized = "unauthorized"
	CodeAccessDenied = "access_denied"
	CodeNotFound     = "not_found"
	CodeBadRequest   = "bad_request"
	CodeInternal     = "internal"
)

// errorEvent преобразует ошибку обработки сообщения в событие для клиента.
// Детали внутренних ошибок наружу не отдаются.
func errorEvent(err error) events.Error {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return events.Error{Message: err.Error(), Code: CodeUnauthorized}
	case errors.Is(err, ErrAccessDenied):
		return events.Error{Message: err.Error(), Code: CodeAccessDenied}
	case errors.Is(err, ErrNotFound):
		return events.Error{Message: err.Error(), Code: CodeNotFound}
	case errors.Is(err, ErrBadRequest):
		return events.Error{Message: err.Error(), Code: CodeBadRequest}
	default:
		return events.Error{Message: "internal error", Code: CodeInternal}
	}
}
