// Package cursor прореживает обновления позиции курсора.
//
// Для каждой сессии хранится не больше одного отложенного значения и
// не больше одного таймера. Таймер создается при первом обновлении и
// снимается после периода простоя.
package cursor

import (
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultInterval минимальный интервал между отправками для одной сессии.
	DefaultInterval = 50 * time.Millisecond
	// DefaultIdleTimeout через сколько после последней отправки освобождается слот сессии.
	DefaultIdleTimeout = 5 * time.Second
)

// Update позиция курсора.
type Update struct {
	SessionID string
	BoardID   string
	X         float64
	Y         float64
}

// EmitFunc получает отложенные обновления по срабатыванию таймера.
// Вызывается вне блокировок троттлера, из горутины таймера.
type EmitFunc func(Update)

// Timer останавливаемый таймер.
type Timer interface {
	Stop() bool
}

// Clock источник времени и таймеров.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Option настройка троттлера
type Option func(*Throttler)

// WithInterval задает минимальный интервал между отправками.
func WithInterval(d time.Duration) Option {
	return func(t *Throttler) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithIdleTimeout задает время простоя до освобождения слота.
func WithIdleTimeout(d time.Duration) Option {
	return func(t *Throttler) {
		if d > 0 {
			t.idle = d
		}
	}
}

// WithClock подменяет часы (для тестов).
func WithClock(c Clock) Option {
	return func(t *Throttler) { t.clock = c }
}

type slot struct {
	lastEmit time.Time
	lastSeen time.Time
	timer    Timer
	pending  *Update
	// gen отсекает срабатывания таймеров, которые уже были заменены
	gen uint64
}

// Throttler троттлер курсоров.
type Throttler struct {
	clock    Clock
	logger   *slog.Logger
	emit     EmitFunc
	slots    map[string]*slot
	interval time.Duration
	idle     time.Duration
	mu       sync.Mutex
	closed   bool
}

// New создает троттлер. emit получает значения, отправляемые по таймеру.
func New(logger *slog.Logger, emit EmitFunc, opts ...Option) *Throttler {
	t := &Throttler{
		clock:    systemClock{},
		logger:   logger,
		emit:     emit,
		slots:    make(map[string]*slot),
		interval: DefaultInterval,
		idle:     DefaultIdleTimeout,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.idle < t.interval {
		t.idle = t.interval
	}
	return t
}

// Submit принимает новую позицию курсора сессии.
//
// Если с последней отправки прошло не меньше интервала, возвращает true:
// вызывающий отправляет значение сам, отложенное значение отбрасывается.
// Иначе значение заменяет отложенное, возвращается false, а таймер
// перезапускается на интервал от текущего момента. По его срабатыванию
// последнее отложенное значение уходит в EmitFunc ровно один раз.
func (t *Throttler) Submit(sessionID, boardID string, x, y float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return false
	}

	now := t.clock.Now()
	s, ok := t.slots[sessionID]
	if !ok {
		s = &slot{}
		t.slots[sessionID] = s
	}
	s.lastSeen = now

	if !ok || now.Sub(s.lastEmit) >= t.interval {
		s.lastEmit = now
		s.pending = nil
		t.arm(sessionID, s, t.idle)
		return true
	}

	s.pending = &Update{SessionID: sessionID, BoardID: boardID, X: x, Y: y}
	t.arm(sessionID, s, t.interval)
	return false
}

// Drop отбрасывает отложенное значение сессии для доски (при выходе с доски).
func (t *Throttler) Drop(sessionID, boardID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.slots[sessionID]; ok && s.pending != nil && s.pending.BoardID == boardID {
		s.pending = nil
	}
}

// Cancel останавливает таймер сессии и освобождает ее слот.
func (t *Throttler) Cancel(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.slots[sessionID]; ok {
		t.release(sessionID, s)
	}
}

// Close останавливает все таймеры. Последующие Submit возвращают false.
func (t *Throttler) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	for id, s := range t.slots {
		t.release(id, s)
	}
}

// Active возвращает количество сессий с выделенным слотом.
func (t *Throttler) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.slots)
}

// arm перезапускает единственный таймер слота. Вызывается под t.mu.
func (t *Throttler) arm(sessionID string, s *slot, d time.Duration) {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.timer = t.clock.AfterFunc(d, func() { t.fire(sessionID, gen) })
}

func (t *Throttler) release(sessionID string, s *slot) {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
	s.pending = nil
	delete(t.slots, sessionID)
}

func (t *Throttler) fire(sessionID string, gen uint64) {
	t.mu.Lock()

	s, ok := t.slots[sessionID]
	if !ok || s.gen != gen || t.closed {
		t.mu.Unlock()
		return
	}

	now := t.clock.Now()
	if s.pending == nil {
		// Простой: освобождаем слот вместе с таймером
		if now.Sub(s.lastSeen) >= t.idle {
			t.release(sessionID, s)
			t.mu.Unlock()
			t.logger.Debug("cursor slot released", "session_id", sessionID)
			return
		}
		t.arm(sessionID, s, t.idle-now.Sub(s.lastSeen))
		t.mu.Unlock()
		return
	}

	u := *s.pending
	s.pending = nil
	s.lastEmit = now
	t.arm(sessionID, s, t.idle)
	t.mu.Unlock()

	if t.emit != nil {
		t.emit(u)
	}
}
