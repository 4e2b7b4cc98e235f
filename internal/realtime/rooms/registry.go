// Package rooms ведет членство сессий в комнатах (board:{id}, user:{id}).
//
// Реестр шардирован по идентификатору комнаты. У каждой комнаты свой мьютекс;
// рассылка (Fanout) выполняется под ним, поэтому события одной комнаты
// доставляются всем участникам в одном порядке, а вход в комнату
// упорядочен относительно рассылок.
package rooms

import (
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"slices"
	"sync"
)

// ErrRoomNotFound комната никогда не существовала.
var ErrRoomNotFound = errors.New("room not found")

const defaultShards = 32

// Option настройка реестра
type Option func(*Registry)

// WithShards задает количество шардов.
func WithShards(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.shardCount = n
		}
	}
}

// WithStrictInvariants включает панику при нарушении внутренних инвариантов.
// Включается вне production.
func WithStrictInvariants(strict bool) Option {
	return func(r *Registry) {
		r.strict = strict
	}
}

// Registry реестр комнат.
type Registry struct {
	logger     *slog.Logger
	sessions   *sessionIndex
	shards     []*shard
	shardCount int
	strict     bool
}

type shard struct {
	rooms map[ID]*room
	// known комнаты, существовавшие хотя бы раз (для ErrRoomNotFound)
	known map[ID]struct{}
	mu    sync.Mutex
}

type room struct {
	members map[string]struct{}
	mu      sync.Mutex
	// closed комната удалена из шарда, вход в нее нужно повторить с новой
	closed bool
}

// Stats статистика реестра
type Stats struct {
	Rooms       int `json:"rooms"`
	Sessions    int `json:"sessions"`
	Memberships int `json:"memberships"`
}

// New создает реестр.
func New(logger *slog.Logger, opts ...Option) *Registry {
	r := &Registry{
		logger:     logger,
		shardCount: defaultShards,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.shards = make([]*shard, r.shardCount)
	for i := range r.shards {
		r.shards[i] = &shard{
			rooms: make(map[ID]*room),
			known: make(map[ID]struct{}),
		}
	}
	r.sessions = newSessionIndex()

	return r
}

func (r *Registry) shardFor(id ID) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte{byte(id.Kind)})
	_, _ = h.Write([]byte(id.Key))
	return r.shards[h.Sum32()%uint32(len(r.shards))]
}

// Join добавляет сессию в комнату. Повторный вход ничего не меняет.
func (r *Registry) Join(sessionID string, id ID) error {
	if sessionID == "" || id.IsZero() {
		return fmt.Errorf("join: %w", ErrInvalidRoomID)
	}

	s := r.shardFor(id)
	for {
		s.mu.Lock()
		rm, ok := s.rooms[id]
		if !ok {
			rm = &room{members: make(map[string]struct{})}
			s.rooms[id] = rm
			s.known[id] = struct{}{}
			r.logger.Debug("room created", "room", id.String())
		}
		s.mu.Unlock()

		rm.mu.Lock()
		if rm.closed {
			// Комнату закрыли между поиском и блокировкой: убираем ее из шарда и берем новую
			rm.mu.Unlock()
			s.mu.Lock()
			if s.rooms[id] == rm {
				delete(s.rooms, id)
			}
			s.mu.Unlock()
			continue
		}
		_, already := rm.members[sessionID]
		rm.members[sessionID] = struct{}{}
		rm.mu.Unlock()

		added := r.sessions.add(sessionID, id)
		if already == added {
			r.violation("session index out of sync on join", "session_id", sessionID, "room", id.String())
		}
		return nil
	}
}

// Leave удаляет сессию из комнаты. Выход из комнаты, в которой сессии нет, ничего не делает.
// Пустая комната удаляется.
func (r *Registry) Leave(sessionID string, id ID) error {
	if sessionID == "" || id.IsZero() {
		return fmt.Errorf("leave: %w", ErrInvalidRoomID)
	}

	removed := r.leaveRoom(sessionID, id)
	indexed := r.sessions.remove(sessionID, id)
	if removed != indexed {
		r.violation("session index out of sync on leave", "session_id", sessionID, "room", id.String())
	}
	return nil
}

// LeaveAll удаляет сессию из всех комнат и возвращает покинутые комнаты
// в детерминированном порядке.
func (r *Registry) LeaveAll(sessionID string) []ID {
	ids := r.sessions.drop(sessionID)
	sortIDs(ids)

	for _, id := range ids {
		if !r.leaveRoom(sessionID, id) {
			r.violation("indexed session missing from room", "session_id", sessionID, "room", id.String())
		}
	}

	if len(ids) > 0 {
		r.logger.Debug("session left all rooms", "session_id", sessionID, "rooms", len(ids))
	}
	return ids
}

func (r *Registry) leaveRoom(sessionID string, id ID) bool {
	s := r.shardFor(id)

	s.mu.Lock()
	rm, ok := s.rooms[id]
	s.mu.Unlock()
	if !ok {
		return false
	}

	rm.mu.Lock()
	_, member := rm.members[sessionID]
	delete(rm.members, sessionID)
	empty := len(rm.members) == 0
	if empty {
		rm.closed = true
	}
	rm.mu.Unlock()

	if empty {
		s.mu.Lock()
		if s.rooms[id] == rm {
			delete(s.rooms, id)
		}
		s.mu.Unlock()
		r.logger.Debug("room removed", "room", id.String())
	}

	return member
}

// MembersOf возвращает копию списка участников комнаты, отсортированную по id сессии.
// Удаленная (опустевшая) комната дает пустой список, ErrRoomNotFound
// возвращается только для комнаты, которой никогда не было.
func (r *Registry) MembersOf(id ID) ([]string, error) {
	s := r.shardFor(id)

	s.mu.Lock()
	rm, ok := s.rooms[id]
	_, known := s.known[id]
	s.mu.Unlock()

	if !ok {
		if !known {
			return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, id)
		}
		return []string{}, nil
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	return rm.snapshot(), nil
}

// Fanout вызывает deliver со списком участников комнаты, удерживая блокировку комнаты.
// Пока deliver выполняется, состав комнаты не меняется, а другие рассылки в эту
// комнату ждут. deliver не должен блокироваться и обращаться к реестру.
// Возвращает false, если комнаты нет.
func (r *Registry) Fanout(id ID, deliver func(members []string)) bool {
	s := r.shardFor(id)

	s.mu.Lock()
	rm, ok := s.rooms[id]
	s.mu.Unlock()
	if !ok {
		return false
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.closed {
		return false
	}
	deliver(rm.snapshot())
	return true
}

// RoomsOf возвращает комнаты сессии.
func (r *Registry) RoomsOf(sessionID string) []ID {
	ids := r.sessions.list(sessionID)
	sortIDs(ids)
	return ids
}

// Stats возвращает текущую статистику.
func (r *Registry) Stats() Stats {
	var st Stats
	for _, s := range r.shards {
		s.mu.Lock()
		st.Rooms += len(s.rooms)
		s.mu.Unlock()
	}
	st.Sessions, st.Memberships = r.sessions.counts()
	return st
}

func (r *Registry) violation(msg string, args ...any) {
	if r.strict {
		panic(fmt.Sprintf("rooms: %s %v", msg, args))
	}
	r.logger.Error("rooms: invariant violated: "+msg, args...)
}

func (rm *room) snapshot() []string {
	out := make([]string, 0, len(rm.members))
	for id := range rm.members {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func sortIDs(ids []ID) {
	slices.SortFunc(ids, func(a, b ID) int {
		if a.Kind != b.Kind {
			return int(a.Kind) - int(b.Kind)
		}
		switch {
		case a.Key < b.Key:
			return -1
		case a.Key > b.Key:
			return 1
		}
		return 0
	})
}
