package dispatch

import "sync"

// DefaultOutboxSize размер исходящей очереди сессии по умолчанию
const DefaultOutboxSize = 256

// Outbox ограниченная исходящая очередь сессии.
// Send никогда не блокируется: при заполненной или закрытой очереди событие отбрасывается.
type Outbox struct {
	ch     chan []byte
	id     string
	mu     sync.RWMutex
	closed bool
}

// NewOutbox создает очередь для сессии.
func NewOutbox(sessionID string, size int) *Outbox {
	if size <= 0 {
		size = DefaultOutboxSize
	}
	return &Outbox{
		id: sessionID,
		ch: make(chan []byte, size),
	}
}

// ID идентификатор сессии.
func (o *Outbox) ID() string { return o.id }

// Send кладет событие в очередь без ожидания.
func (o *Outbox) Send(frame []byte) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.closed {
		return false
	}

	select {
	case o.ch <- frame:
		return true
	default:
		return false
	}
}

// C канал для писателя транспорта. Закрывается при Close.
func (o *Outbox) C() <-chan []byte { return o.ch }

// Len количество событий в очереди.
func (o *Outbox) Len() int { return len(o.ch) }

// Close закрывает очередь. Повторный вызов безопасен.
func (o *Outbox) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}
	o.closed = true
	close(o.ch)
}
