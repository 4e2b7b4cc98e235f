// Package dispatch рассылает события участникам комнат.
//
// Доставка best-effort: событие кладется в исходящую очередь сессии без
// ожидания; если очередь заполнена или закрыта, событие отбрасывается.
// Клиент восстанавливает состояние полной перезагрузкой.
package dispatch

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iudanet/boardsync/internal/clock"
	"github.com/iudanet/boardsync/internal/realtime/events"
	"github.com/iudanet/boardsync/internal/realtime/rooms"
)

//go:generate moq -out sink_mock.go . Sink

// Sink исходящая очередь сессии.
type Sink interface {
	ID() string
	// Send не блокируется; false если событие отброшено.
	Send(frame []byte) bool
}

// Relay пересылает локально опубликованные события на другие узлы.
// Forward не должен блокироваться на сетевом вводе-выводе.
type Relay interface {
	Forward(room rooms.ID, seq uint64, frame []byte)
}

// Result итог публикации
type Result struct {
	Seq       uint64
	Delivered int
	Dropped   int
}

// Stats счетчики диспетчера
type Stats struct {
	Published uint64 `json:"published"`
	Delivered uint64 `json:"delivered"`
	Dropped   uint64 `json:"dropped"`
	Sinks     int    `json:"sinks"`
}

// Dispatcher диспетчер событий.
type Dispatcher struct {
	logger    *slog.Logger
	registry  *rooms.Registry
	clock     *clock.Lamport
	relay     Relay
	now       func() time.Time
	sinks     map[string]Sink
	published atomic.Uint64
	delivered atomic.Uint64
	dropped   atomic.Uint64
	mu        sync.RWMutex
}

// New создает диспетчер.
func New(logger *slog.Logger, registry *rooms.Registry, clk *clock.Lamport) *Dispatcher {
	return &Dispatcher{
		logger:   logger,
		registry: registry,
		clock:    clk,
		now:      func() time.Time { return time.Now().UTC() },
		sinks:    make(map[string]Sink),
	}
}

// SetRelay подключает пересылку между узлами. Вызывается до начала работы.
func (d *Dispatcher) SetRelay(r Relay) {
	d.relay = r
}

// Attach регистрирует очередь сессии.
func (d *Dispatcher) Attach(s Sink) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.sinks[s.ID()] = s
}

// Detach удаляет очередь сессии. Последующие события для нее отбрасываются.
func (d *Dispatcher) Detach(sessionID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.sinks, sessionID)
}

func (d *Dispatcher) sink(sessionID string) Sink {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.sinks[sessionID]
}

// Publish доставляет событие всем участникам комнаты env.Room.
//
// Номер события и сериализация выполняются под блокировкой комнаты, поэтому
// последовательные вызовы Publish для одной комнаты наблюдаются всеми
// участниками в одном порядке, а вошедший позже участник не получает
// опубликованных до его входа событий. Между разными комнатами порядок
// не гарантируется.
func (d *Dispatcher) Publish(env events.Envelope) Result {
	if env.Timestamp.IsZero() {
		env.Timestamp = d.now()
	}

	var (
		res   Result
		frame []byte
		err   error
	)

	found := d.registry.Fanout(env.Room, func(members []string) {
		env.Seq = d.clock.Tick()
		frame, err = events.Encode(env)
		if err != nil {
			return
		}
		res.Seq = env.Seq

		for _, id := range members {
			if id == env.ExceptSession {
				continue
			}
			if d.deliver(id, frame) {
				res.Delivered++
			} else {
				res.Dropped++
			}
		}
	})

	if !found {
		// Локальных участников нет, но они могут быть на других узлах
		env.Seq = d.clock.Tick()
		res.Seq = env.Seq
		frame, err = events.Encode(env)
	}
	if err != nil {
		d.logger.Error("failed to encode event", "type", env.Type(), "room", env.Room.String(), "error", err)
		return Result{}
	}

	d.published.Add(1)
	d.delivered.Add(uint64(res.Delivered))
	d.dropped.Add(uint64(res.Dropped))

	if res.Dropped > 0 {
		d.logger.Debug("event dropped for slow sessions",
			"type", env.Type(), "room", env.Room.String(), "dropped", res.Dropped)
	}

	if d.relay != nil {
		d.relay.Forward(env.Room, env.Seq, frame)
	}

	return res
}

// DeliverRemote доставляет локальным участникам событие, опубликованное на другом узле.
func (d *Dispatcher) DeliverRemote(room rooms.ID, seq uint64, frame []byte) Result {
	var res Result

	d.registry.Fanout(room, func(members []string) {
		res.Seq = d.clock.Observe(seq)
		for _, id := range members {
			if d.deliver(id, frame) {
				res.Delivered++
			} else {
				res.Dropped++
			}
		}
	})

	d.delivered.Add(uint64(res.Delivered))
	d.dropped.Add(uint64(res.Dropped))
	return res
}

// SendTo отправляет событие одной сессии вне комнат (board:joined, error).
func (d *Dispatcher) SendTo(sessionID string, env events.Envelope) bool {
	if env.Timestamp.IsZero() {
		env.Timestamp = d.now()
	}

	frame, err := events.Encode(env)
	if err != nil {
		d.logger.Error("failed to encode direct event", "type", env.Type(), "session_id", sessionID, "error", err)
		return false
	}

	ok := d.deliver(sessionID, frame)
	if ok {
		d.delivered.Add(1)
	} else {
		d.dropped.Add(1)
	}
	return ok
}

func (d *Dispatcher) deliver(sessionID string, frame []byte) bool {
	s := d.sink(sessionID)
	if s == nil {
		return false
	}
	return s.Send(frame)
}

// Stats возвращает счетчики.
func (d *Dispatcher) Stats() Stats {
	d.mu.RLock()
	sinks := len(d.sinks)
	d.mu.RUnlock()

	return Stats{
		Published: d.published.Load(),
		Delivered: d.delivered.Load(),
		Dropped:   d.dropped.Load(),
		Sinks:     sinks,
	}
}
