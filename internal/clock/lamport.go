// Package clock содержит логические часы, которыми сервер нумерует
// исходящие события комнат.
package clock

import (
	"sync"

	"github.com/google/uuid"
)

// Lamport логические часы Лампорта.
// Диспетчер вызывает Tick внутри блокировки комнаты, поэтому порядок
// номеров внутри одной комнаты совпадает с порядком доставки.
type Lamport struct {
	nodeID  string
	counter uint64
	mu      sync.Mutex
}

// New создает часы с новым идентификатором узла (UUID).
func New() *Lamport {
	return &Lamport{nodeID: uuid.NewString()}
}

// NewWithNodeID создает часы с заданным идентификатором узла.
// Используется в тестах и при запуске нескольких реплик с фиксированными именами.
func NewWithNodeID(nodeID string) *Lamport {
	return &Lamport{nodeID: nodeID}
}

// Tick увеличивает счетчик и возвращает номер нового локального события.
func (l *Lamport) Tick() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.counter++
	return l.counter
}

// Observe учитывает номер события, пришедшего с другого узла:
// counter = max(local, remote) + 1
func (l *Lamport) Observe(remote uint64) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	if remote > l.counter {
		l.counter = remote
	}
	l.counter++

	return l.counter
}

// Now возвращает текущее значение без изменения.
func (l *Lamport) Now() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.counter
}

// NodeID возвращает идентификатор узла.
func (l *Lamport) NodeID() string {
	return l.nodeID
}
