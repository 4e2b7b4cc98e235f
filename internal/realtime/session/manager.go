// Package session реализует состояние websocket-соединения:
// аутентификацию, вход на доски, курсоры и очистку при отключении.
//
// Входящие сообщения обрабатываются синхронно в горутине соединения
// через таблицу обработчиков по типу сообщения.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/iudanet/boardsync/internal/models"
	"github.com/iudanet/boardsync/internal/realtime/cursor"
	"github.com/iudanet/boardsync/internal/realtime/dispatch"
	"github.com/iudanet/boardsync/internal/realtime/events"
	"github.com/iudanet/boardsync/internal/realtime/presence"
	"github.com/iudanet/boardsync/internal/realtime/rooms"
	"github.com/iudanet/boardsync/pkg/api"
)

// Deps зависимости менеджера сессий
type Deps struct {
	Registry   *rooms.Registry
	Presence   *presence.Tracker
	Dispatcher *dispatch.Dispatcher
	Identity   IdentityVerifier
	Boards     BoardAuthorizer
	Profiles   ProfileLookup
}

// Option настройка менеджера
type Option func(*Manager)

// WithOutboxSize задает размер исходящей очереди каждой сессии.
func WithOutboxSize(n int) Option {
	return func(m *Manager) { m.outboxSize = n }
}

// WithCursorOptions передает настройки троттлеру курсоров.
func WithCursorOptions(opts ...cursor.Option) Option {
	return func(m *Manager) { m.cursorOpts = append(m.cursorOpts, opts...) }
}

type handlerFunc func(ctx context.Context, s *Session, data json.RawMessage) error

type handler struct {
	fn handlerFunc
	// public обработчик доступен до аутентификации
	public bool
}

// Manager создает сессии и владеет общими для них компонентами.
type Manager struct {
	logger     *slog.Logger
	registry   *rooms.Registry
	presence   *presence.Tracker
	dispatcher *dispatch.Dispatcher
	cursors    *cursor.Throttler
	identity   IdentityVerifier
	boards     BoardAuthorizer
	profiles   ProfileLookup
	handlers   map[string]handler
	sessions   map[string]*Session
	cursorOpts []cursor.Option
	outboxSize int
	mu         sync.RWMutex
}

// NewManager создает менеджер сессий.
func NewManager(logger *slog.Logger, deps Deps, opts ...Option) *Manager {
	m := &Manager{
		logger:     logger,
		registry:   deps.Registry,
		presence:   deps.Presence,
		dispatcher: deps.Dispatcher,
		identity:   deps.Identity,
		boards:     deps.Boards,
		profiles:   deps.Profiles,
		sessions:   make(map[string]*Session),
		outboxSize: dispatch.DefaultOutboxSize,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.cursors = cursor.New(logger, m.emitCursor, m.cursorOpts...)
	m.handlers = map[string]handler{
		api.MessageAuth:       {fn: handleAuth, public: true},
		api.MessagePing:       {fn: handlePing, public: true},
		api.MessageBoardJoin:  {fn: handleBoardJoin},
		api.MessageBoardLeave: {fn: handleBoardLeave},
		api.MessageCursorMove: {fn: handleCursorMove},
	}

	return m
}

// Open создает новую неаутентифицированную сессию.
func (m *Manager) Open() *Session {
	id := uuid.NewString()
	s := &Session{
		id:     id,
		m:      m,
		outbox: dispatch.NewOutbox(id, m.outboxSize),
		boards: make(map[string]struct{}),
		state:  StateUnauthenticated,
	}

	m.dispatcher.Attach(s.outbox)

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	m.logger.Debug("session opened", "session_id", id)
	return s
}

// Get возвращает открытую сессию.
func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[sessionID]
	return s, ok
}

// Count количество открытых сессий.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}

// EvictFromBoard выводит все сессии пользователя из комнаты доски.
// Вызывается после удаления участника, чтобы он перестал получать события.
// Возвращает количество затронутых сессий.
func (m *Manager) EvictFromBoard(userID, boardID string) int {
	m.mu.RLock()
	var targets []*Session
	for _, s := range m.sessions {
		if s.UserID() == userID {
			targets = append(targets, s)
		}
	}
	m.mu.RUnlock()

	evicted := 0
	for _, s := range targets {
		if _, joined := s.onBoard(boardID); !joined {
			continue
		}
		if err := s.LeaveBoard(boardID); err != nil {
			m.logger.Debug("evict skipped", "session_id", s.id, "board_id", boardID, "error", err)
			continue
		}
		evicted++
	}

	if evicted > 0 {
		m.logger.Info("user evicted from board", "user_id", userID, "board_id", boardID, "sessions", evicted)
	}
	return evicted
}

// Close закрывает все сессии и останавливает таймеры курсоров.
func (m *Manager) Close() {
	m.mu.RLock()
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.RUnlock()

	for _, s := range open {
		s.Close()
	}
	m.cursors.Close()
}

func (m *Manager) remove(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, sessionID)
}

// emitCursor получает отложенные позиции курсора от троттлера.
func (m *Manager) emitCursor(u cursor.Update) {
	s, ok := m.Get(u.SessionID)
	if !ok {
		return
	}

	profile, joined := s.onBoard(u.BoardID)
	if !joined {
		return
	}
	m.publishCursor(s.id, profile, u.BoardID, u.X, u.Y)
}

func (m *Manager) publishCursor(sessionID string, profile models.UserProfile, boardID string, x, y float64) {
	env := events.ToBoard(boardID, profile.UserID, events.CursorUpdated{
		BoardID:   boardID,
		UserID:    profile.UserID,
		Username:  profile.Username,
		AvatarURL: profile.AvatarURL,
		X:         x,
		Y:         y,
	})
	m.dispatcher.Publish(env.Except(sessionID))
}
