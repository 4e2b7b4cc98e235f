package server

import (
	"log/slog"
	"net/http"

	"github.com/iudanet/boardsync/internal/server/handlers"
	"github.com/iudanet/boardsync/internal/server/middleware"
)

// APIPrefix префикс всех маршрутов
const APIPrefix = "/api/v1"

// Routes обработчики, из которых собирается роутер
type Routes struct {
	Health        *handlers.HealthHandler
	Auth          *handlers.AuthHandler
	Boards        *handlers.BoardHandler
	Notifications *handlers.NotificationHandler
	WS            http.Handler
}

// NewRouter собирает маршруты API.
// Цепочка: recovery, логирование (кроме health), rate limit, затем Bearer auth для закрытых маршрутов.
func NewRouter(logger *slog.Logger, routes Routes, tokens middleware.TokenValidator, limits *middleware.PathRateLimiter) http.Handler {
	mux := http.NewServeMux()
	auth := middleware.AuthMiddleware(logger, tokens)

	public := func(pattern string, h http.Handler) {
		mux.Handle(pattern, h)
	}
	protected := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, auth(fn))
	}

	// Public endpoints
	public("GET "+APIPrefix+"/health", http.HandlerFunc(routes.Health.Health))
	public("POST "+APIPrefix+"/auth/register", http.HandlerFunc(routes.Auth.Register))
	public("POST "+APIPrefix+"/auth/login", http.HandlerFunc(routes.Auth.Login))
	// websocket аутентифицируется сам: query token, заголовок или сообщение auth
	public("GET "+APIPrefix+"/ws", routes.WS)

	// Boards
	b := routes.Boards
	protected("GET "+APIPrefix+"/boards", b.ListBoards)
	protected("POST "+APIPrefix+"/boards", b.CreateBoard)
	protected("GET "+APIPrefix+"/boards/{boardID}", b.GetBoard)
	protected("GET "+APIPrefix+"/boards/{boardID}/presence", b.Presence)

	// Members
	protected("GET "+APIPrefix+"/boards/{boardID}/members", b.ListMembers)
	protected("POST "+APIPrefix+"/boards/{boardID}/members", b.AddMember)
	protected("PATCH "+APIPrefix+"/boards/{boardID}/members/{userID}", b.UpdateMember)
	protected("DELETE "+APIPrefix+"/boards/{boardID}/members/{userID}", b.RemoveMember)

	// Lists
	protected("POST "+APIPrefix+"/boards/{boardID}/lists", b.CreateList)
	protected("PUT "+APIPrefix+"/boards/{boardID}/lists/order", b.ReorderLists)
	protected("PATCH "+APIPrefix+"/lists/{listID}", b.UpdateList)
	protected("DELETE "+APIPrefix+"/lists/{listID}", b.DeleteList)

	// Cards
	protected("POST "+APIPrefix+"/lists/{listID}/cards", b.CreateCard)
	protected("PUT "+APIPrefix+"/lists/{listID}/cards/order", b.ReorderCards)
	protected("PATCH "+APIPrefix+"/cards/{cardID}", b.UpdateCard)
	protected("DELETE "+APIPrefix+"/cards/{cardID}", b.DeleteCard)
	protected("POST "+APIPrefix+"/cards/{cardID}/move", b.MoveCard)
	protected("POST "+APIPrefix+"/cards/{cardID}/comments", b.AddComment)
	protected("GET "+APIPrefix+"/cards/{cardID}/comments", b.ListComments)

	// Notifications
	protected("GET "+APIPrefix+"/notifications", routes.Notifications.List)
	protected("POST "+APIPrefix+"/notifications/{id}/read", routes.Notifications.MarkRead)

	var handler http.Handler = mux
	handler = limits.Middleware(handler)
	handler = middleware.LoggingWithSkip(logger, []string{APIPrefix + "/health"})(handler)
	handler = middleware.RecoveryMiddleware(logger)(handler)
	return handler
}
