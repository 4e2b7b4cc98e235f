package rooms

import "sync"

// sessionIndex обратный индекс: сессия -> комнаты
type sessionIndex struct {
	rooms map[string]map[ID]struct{}
	mu    sync.Mutex
}

func newSessionIndex() *sessionIndex {
	return &sessionIndex{rooms: make(map[string]map[ID]struct{})}
}

// add возвращает true, если связи еще не было
func (x *sessionIndex) add(sessionID string, id ID) bool {
	x.mu.Lock()
	defer x.mu.Unlock()

	set, ok := x.rooms[sessionID]
	if !ok {
		set = make(map[ID]struct{})
		x.rooms[sessionID] = set
	}
	if _, exists := set[id]; exists {
		return false
	}
	set[id] = struct{}{}
	return true
}

// remove возвращает true, если связь была
func (x *sessionIndex) remove(sessionID string, id ID) bool {
	x.mu.Lock()
	defer x.mu.Unlock()

	set, ok := x.rooms[sessionID]
	if !ok {
		return false
	}
	if _, exists := set[id]; !exists {
		return false
	}
	delete(set, id)
	if len(set) == 0 {
		delete(x.rooms, sessionID)
	}
	return true
}

func (x *sessionIndex) drop(sessionID string) []ID {
	x.mu.Lock()
	set := x.rooms[sessionID]
	delete(x.rooms, sessionID)
	x.mu.Unlock()

	out := make([]ID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

func (x *sessionIndex) list(sessionID string) []ID {
	x.mu.Lock()
	defer x.mu.Unlock()

	set := x.rooms[sessionID]
	out := make([]ID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

func (x *sessionIndex) counts() (sessions, memberships int) {
	x.mu.Lock()
	defer x.mu.Unlock()

	for _, set := range x.rooms {
		memberships += len(set)
	}
	return len(x.rooms), memberships
}
