package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/iudanet/boardsync/internal/models"
	"github.com/iudanet/boardsync/internal/realtime/dispatch"
	"github.com/iudanet/boardsync/internal/realtime/events"
	"github.com/iudanet/boardsync/internal/realtime/presence"
	"github.com/iudanet/boardsync/internal/realtime/rooms"
	"github.com/iudanet/boardsync/pkg/api"
)

// State состояние сессии
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticated
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session состояние одного соединения.
type Session struct {
	m       *Manager
	outbox  *dispatch.Outbox
	boards  map[string]struct{}
	profile models.UserProfile
	id      string
	state   State
	mu      sync.Mutex
}

// ID идентификатор сессии.
func (s *Session) ID() string { return s.id }

// Outbox канал исходящих событий для писателя транспорта.
// Закрывается при закрытии сессии.
func (s *Session) Outbox() <-chan []byte { return s.outbox.C() }

// State текущее состояние.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// UserID id пользователя, пустой до аутентификации.
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.profile.UserID
}

// Boards доски, на которые вошла сессия.
func (s *Session) Boards() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.boards))
	for id := range s.boards {
		out = append(out, id)
	}
	return out
}

// Handle обрабатывает одно входящее сообщение. Ошибка отправляется клиенту
// событием error и возвращается вызывающему; соединение не закрывается.
func (s *Session) Handle(ctx context.Context, raw []byte) error {
	var msg api.ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return s.fail(fmt.Errorf("%w: malformed message", ErrBadRequest))
	}

	h, ok := s.m.handlers[msg.Type]
	if !ok {
		return s.fail(fmt.Errorf("%w: unknown message type %q", ErrBadRequest, msg.Type))
	}

	if !h.public {
		switch s.State() {
		case StateClosed:
			return ErrClosed
		case StateUnauthenticated:
			return s.fail(fmt.Errorf("%w: %s requires authentication", ErrUnauthorized, msg.Type))
		}
	}

	if err := h.fn(ctx, s, msg.Data); err != nil {
		return s.fail(err)
	}
	return nil
}

// Authenticate проверяет токен и переводит сессию в Authenticated.
// При ошибке клиент получает событие error.
func (s *Session) Authenticate(ctx context.Context, token string) error {
	if err := s.authenticate(ctx, token); err != nil {
		return s.fail(err)
	}
	return nil
}

func (s *Session) authenticate(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("%w: empty token", ErrUnauthorized)
	}

	switch s.State() {
	case StateClosed:
		return ErrClosed
	case StateAuthenticated:
		return fmt.Errorf("%w: already authenticated", ErrBadRequest)
	}

	userID, err := s.m.identity.VerifyIdentity(ctx, token)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	profile, err := s.m.profiles.LookupUserProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: unknown user", ErrUnauthorized)
		}
		return fmt.Errorf("lookup profile: %w", err)
	}
	profile.UserID = userID

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateClosed:
		return ErrClosed
	case StateAuthenticated:
		return fmt.Errorf("%w: already authenticated", ErrBadRequest)
	}

	if err := s.m.registry.Join(s.id, rooms.User(userID)); err != nil {
		return fmt.Errorf("join personal room: %w", err)
	}
	s.state = StateAuthenticated
	s.profile = profile

	s.m.dispatcher.SendTo(s.id, events.Envelope{Payload: events.Authenticated{
		SessionID: s.id,
		UserID:    userID,
		Username:  profile.Username,
	}})

	s.m.logger.Info("session authenticated", "session_id", s.id, "user_id", userID)
	return nil
}

// JoinBoard проверяет доступ и входит в комнату доски.
// Сессия получает board:joined со снимком присутствия, остальные участники
// получают board:user-joined, если это первая сессия пользователя на доске.
func (s *Session) JoinBoard(ctx context.Context, boardID string) error {
	if boardID == "" {
		return fmt.Errorf("%w: boardId is required", ErrBadRequest)
	}

	profile, err := s.identity()
	if err != nil {
		return err
	}

	// Вызов внешнего сервиса вне блокировок
	allowed, err := s.m.boards.AuthorizeBoardAccess(ctx, profile.UserID, boardID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("board %s: %w", boardID, ErrNotFound)
		}
		return fmt.Errorf("authorize board access: %w", err)
	}
	if !allowed {
		return fmt.Errorf("board %s: %w", boardID, ErrAccessDenied)
	}

	s.mu.Lock()
	if s.state != StateAuthenticated {
		s.mu.Unlock()
		return ErrClosed
	}

	first, active := s.m.presence.RecordJoin(boardID, profile.UserID, s.id, presence.UserInfo{
		Username:  profile.Username,
		AvatarURL: profile.AvatarURL,
	})

	// board:joined кладется в очередь до входа в комнату, чтобы
	// события комнаты приходили после него
	s.m.dispatcher.SendTo(s.id, events.New(rooms.Board(boardID), profile.UserID, events.BoardJoined{
		BoardID:     boardID,
		UserID:      profile.UserID,
		Username:    profile.Username,
		ActiveUsers: active,
	}))

	if err := s.m.registry.Join(s.id, rooms.Board(boardID)); err != nil {
		s.m.presence.RecordLeave(boardID, profile.UserID, s.id)
		s.mu.Unlock()
		return fmt.Errorf("join board room: %w", err)
	}
	s.boards[boardID] = struct{}{}
	s.mu.Unlock()

	if first {
		s.m.dispatcher.Publish(events.ToBoard(boardID, profile.UserID, events.UserJoined{
			UserID:    profile.UserID,
			Username:  profile.Username,
			AvatarURL: profile.AvatarURL,
		}).Except(s.id))
	}

	s.m.logger.Debug("board joined", "session_id", s.id, "user_id", profile.UserID, "board_id", boardID, "first", first)
	return nil
}

// LeaveBoard выходит из комнаты доски. Выход с доски, на которую сессия не входила, ничего не делает.
func (s *Session) LeaveBoard(boardID string) error {
	s.mu.Lock()
	if s.state != StateAuthenticated {
		s.mu.Unlock()
		return ErrClosed
	}
	if _, ok := s.boards[boardID]; !ok {
		s.mu.Unlock()
		return nil
	}

	delete(s.boards, boardID)
	if err := s.m.registry.Leave(s.id, rooms.Board(boardID)); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("leave board room: %w", err)
	}
	last := s.m.presence.RecordLeave(boardID, s.profile.UserID, s.id)
	profile := s.profile
	s.mu.Unlock()

	s.m.cursors.Drop(s.id, boardID)

	if last {
		s.m.dispatcher.Publish(events.ToBoard(boardID, profile.UserID, events.UserLeft{
			UserID:   profile.UserID,
			Username: profile.Username,
		}))
	}
	return nil
}

// MoveCursor передает позицию курсора на доске через троттлер.
func (s *Session) MoveCursor(boardID string, x, y float64) error {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return fmt.Errorf("%w: invalid cursor coordinates", ErrBadRequest)
	}

	profile, joined := s.onBoard(boardID)
	if !joined {
		return fmt.Errorf("board %s not joined: %w", boardID, ErrAccessDenied)
	}

	s.m.presence.Heartbeat(boardID, profile.UserID)
	if s.m.cursors.Submit(s.id, boardID, x, y) {
		s.m.publishCursor(s.id, profile, boardID, x, y)
	}
	return nil
}

// Close переводит сессию в Closed: выходит из всех комнат, снимает присутствие,
// останавливает таймер курсора и закрывает очередь. Повторный вызов ничего не делает.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	profile := s.profile

	left := s.m.registry.LeaveAll(s.id)
	var gone []string
	for _, id := range left {
		if id.Kind != rooms.KindBoard {
			continue
		}
		if s.m.presence.RecordLeave(id.Key, profile.UserID, s.id) {
			gone = append(gone, id.Key)
		}
	}
	s.boards = make(map[string]struct{})
	s.mu.Unlock()

	s.m.cursors.Cancel(s.id)
	s.m.dispatcher.Detach(s.id)
	s.outbox.Close()
	s.m.remove(s.id)

	for _, boardID := range gone {
		s.m.dispatcher.Publish(events.ToBoard(boardID, profile.UserID, events.UserLeft{
			UserID:   profile.UserID,
			Username: profile.Username,
		}))
	}

	s.m.logger.Debug("session closed", "session_id", s.id, "user_id", profile.UserID, "rooms", len(left))
}

func (s *Session) identity() (models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateAuthenticated:
		return s.profile, nil
	case StateClosed:
		return models.UserProfile{}, ErrClosed
	default:
		return models.UserProfile{}, ErrUnauthorized
	}
}

func (s *Session) onBoard(boardID string) (models.UserProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAuthenticated {
		return models.UserProfile{}, false
	}
	_, ok := s.boards[boardID]
	return s.profile, ok
}

func (s *Session) fail(err error) error {
	if errors.Is(err, ErrClosed) {
		return err
	}

	payload := errorEvent(err)
	if payload.Code == CodeInternal {
		s.m.logger.Error("message handling failed", "session_id", s.id, "error", err)
	} else {
		s.m.logger.Debug("message rejected", "session_id", s.id, "code", payload.Code, "error", err)
	}

	s.m.dispatcher.SendTo(s.id, events.Envelope{Payload: payload})
	return err
}
