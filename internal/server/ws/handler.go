package ws

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iudanet/boardsync/internal/realtime/session"
)

// DefaultAuthTimeout время на аутентификацию после подключения
const DefaultAuthTimeout = 10 * time.Second

// Option настройка Handler
type Option func(*Handler)

// WithAuthTimeout задает время, за которое клиент должен аутентифицироваться.
func WithAuthTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.authTimeout = d
		}
	}
}

// WithAllowedOrigins ограничивает Origin при upgrade. Пустой список разрешает любой.
func WithAllowedOrigins(origins ...string) Option {
	return func(h *Handler) { h.origins = origins }
}

// Handler обрабатывает GET /api/v1/ws
type Handler struct {
	logger      *slog.Logger
	manager     *session.Manager
	upgrader    websocket.Upgrader
	origins     []string
	authTimeout time.Duration
}

// NewHandler создает websocket handler.
func NewHandler(logger *slog.Logger, manager *session.Manager, opts ...Option) *Handler {
	h := &Handler{
		logger:      logger,
		manager:     manager,
		authTimeout: DefaultAuthTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if len(h.origins) == 0 {
		return true
	}
	return slices.Contains(h.origins, r.Header.Get("Origin"))
}

// ServeHTTP выполняет upgrade и обслуживает соединение до его закрытия.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		h.logger.Warn("websocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	s := h.manager.Open()
	c := &conn{logger: h.logger, ws: wsConn, session: s}

	go c.writePump()

	// Токен может прийти в query или заголовке, иначе ждем сообщение auth
	if token := tokenFromRequest(r); token != "" {
		_ = s.Authenticate(r.Context(), token)
	}

	deadline := time.AfterFunc(h.authTimeout, func() {
		if s.State() == session.StateUnauthenticated {
			h.logger.Info("websocket auth timeout", "session_id", s.ID())
			s.Close()
		}
	})
	defer deadline.Stop()

	h.logger.Info("websocket connected", "session_id", s.ID(), "remote_addr", r.RemoteAddr)
	c.readPump(r.Context())
	h.logger.Info("websocket disconnected", "session_id", s.ID(), "user_id", s.UserID())
}

func tokenFromRequest(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}
