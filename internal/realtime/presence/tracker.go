// Package presence отслеживает, какие пользователи сейчас смотрят доску.
//
// Присутствие считается по сессиям: пользователь с несколькими вкладками
// виден на доске один раз, а сигналы "вошел"/"вышел" возникают только
// при переходах 0→1 и 1→0.
package presence

import (
	"cmp"
	"fmt"
	"hash/fnv"
	"log/slog"
	"slices"
	"sync"
	"time"
)

const defaultShards = 32

// UserInfo профиль пользователя для отображения
type UserInfo struct {
	Username  string
	AvatarURL string
}

// Entry запись присутствия пользователя на доске.
type Entry struct {
	JoinedAt   time.Time `json:"joinedAt"`
	LastSeenAt time.Time `json:"lastSeenAt"`
	UserID     string    `json:"userId"`
	Username   string    `json:"username"`
	AvatarURL  string    `json:"avatarUrl,omitempty"`
}

type userState struct {
	sessions map[string]struct{}
	entry    Entry
}

type board struct {
	users map[string]*userState
}

type shard struct {
	boards map[string]*board
	mu     sync.Mutex
}

// Option настройка трекера
type Option func(*Tracker)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithStrictInvariants включает панику при нарушении инвариантов.
func WithStrictInvariants(strict bool) Option {
	return func(t *Tracker) { t.strict = strict }
}

// Tracker трекер присутствия, шардированный по доскам.
type Tracker struct {
	logger *slog.Logger
	now    func() time.Time
	shards []*shard
	strict bool
}

// New создает трекер.
func New(logger *slog.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		logger: logger,
		now:    time.Now,
		shards: make([]*shard, defaultShards),
	}
	for i := range t.shards {
		t.shards[i] = &shard{boards: make(map[string]*board)}
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) shardFor(boardID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(boardID))
	return t.shards[h.Sum32()%uint32(len(t.shards))]
}

// RecordJoin учитывает вход сессии на доску. first равен true только когда
// это первая сессия пользователя на доске. active снимок присутствующих
// после входа.
func (t *Tracker) RecordJoin(boardID, userID, sessionID string, info UserInfo) (first bool, active []Entry) {
	s := t.shardFor(boardID)
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.boards[boardID]
	if !ok {
		b = &board{users: make(map[string]*userState)}
		s.boards[boardID] = b
	}

	now := t.now()
	st, ok := b.users[userID]
	if !ok {
		st = &userState{
			sessions: make(map[string]struct{}),
			entry: Entry{
				UserID:     userID,
				Username:   info.Username,
				AvatarURL:  info.AvatarURL,
				JoinedAt:   now,
				LastSeenAt: now,
			},
		}
		b.users[userID] = st
		first = true
	} else if len(st.sessions) == 0 {
		t.violation("presence entry without sessions", "board_id", boardID, "user_id", userID)
	}

	st.sessions[sessionID] = struct{}{}
	st.entry.LastSeenAt = now

	return first, b.sorted()
}

// RecordLeave учитывает выход сессии. last равен true, когда ушла последняя
// сессия пользователя; запись присутствия при этом удаляется.
// Выход сессии, которая не входила, ничего не меняет.
func (t *Tracker) RecordLeave(boardID, userID, sessionID string) (last bool) {
	s := t.shardFor(boardID)
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.boards[boardID]
	if !ok {
		return false
	}
	st, ok := b.users[userID]
	if !ok {
		return false
	}
	if _, ok := st.sessions[sessionID]; !ok {
		return false
	}

	delete(st.sessions, sessionID)
	if len(st.sessions) > 0 {
		return false
	}

	delete(b.users, userID)
	if len(b.users) == 0 {
		delete(s.boards, boardID)
	}
	return true
}

// ActiveUsers возвращает присутствующих на доске по возрастанию времени входа
// (при равенстве по userID).
func (t *Tracker) ActiveUsers(boardID string) []Entry {
	s := t.shardFor(boardID)
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.boards[boardID]
	if !ok {
		return []Entry{}
	}
	return b.sorted()
}

// Heartbeat обновляет время последней активности пользователя.
// Возвращает false, если пользователя на доске нет.
func (t *Tracker) Heartbeat(boardID, userID string) bool {
	s := t.shardFor(boardID)
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.boards[boardID]
	if !ok {
		return false
	}
	st, ok := b.users[userID]
	if !ok {
		return false
	}
	st.entry.LastSeenAt = t.now()
	return true
}

// Sessions возвращает число сессий пользователя на доске.
func (t *Tracker) Sessions(boardID, userID string) int {
	s := t.shardFor(boardID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.boards[boardID]; ok {
		if st, ok := b.users[userID]; ok {
			return len(st.sessions)
		}
	}
	return 0
}

func (b *board) sorted() []Entry {
	out := make([]Entry, 0, len(b.users))
	for _, st := range b.users {
		out = append(out, st.entry)
	}
	slices.SortFunc(out, func(a, b Entry) int {
		if c := a.JoinedAt.Compare(b.JoinedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})
	return out
}

func (t *Tracker) violation(msg string, args ...any) {
	if t.strict {
		panic(fmt.Sprintf("presence: %s %v", msg, args))
	}
	t.logger.Error("presence: invariant violated: "+msg, args...)
}
