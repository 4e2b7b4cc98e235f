// Package relay пересылает события комнат между узлами через Redis pub/sub.
//
// Каждый узел публикует локальные события в общий канал и доставляет
// локально события остальных узлов. Свои сообщения узел пропускает.
// Порядок между узлами не гарантируется.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/redis/go-redis/v9"

	"github.com/iudanet/boardsync/internal/realtime/dispatch"
	"github.com/iudanet/boardsync/internal/realtime/rooms"
)

// DefaultChannel канал Redis для событий
const DefaultChannel = "boardsync:events"

// DefaultBuffer размер очереди исходящих сообщений
const DefaultBuffer = 1024

// Deliverer локальная доставка полученных событий
type Deliverer interface {
	DeliverRemote(room rooms.ID, seq uint64, frame []byte) dispatch.Result
}

// message формат сообщения в канале
type message struct {
	Node  string          `json:"node"`
	Room  rooms.ID        `json:"room"`
	Frame json.RawMessage `json:"frame"`
	Seq   uint64          `json:"seq"`
}

// Option настройка Relay
type Option func(*Relay)

// WithChannel задает канал Redis.
func WithChannel(channel string) Option {
	return func(r *Relay) { r.channel = channel }
}

// WithBuffer задает размер очереди исходящих сообщений.
func WithBuffer(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.buffer = n
		}
	}
}

// Relay реализует dispatch.Relay поверх Redis.
type Relay struct {
	logger    *slog.Logger
	client    *redis.Client
	deliver   Deliverer
	out       chan message
	done      chan struct{}
	nodeID    string
	channel   string
	buffer    int
	forwarded atomic.Uint64
	received  atomic.Uint64
	dropped   atomic.Uint64
	closeOnce sync.Once
}

// New создает relay. Запуск через Run.
func New(logger *slog.Logger, client *redis.Client, nodeID string, deliver Deliverer, opts ...Option) *Relay {
	r := &Relay{
		logger:  logger,
		client:  client,
		deliver: deliver,
		nodeID:  nodeID,
		channel: DefaultChannel,
		buffer:  DefaultBuffer,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.out = make(chan message, r.buffer)
	return r
}

// Forward ставит событие в очередь публикации. Не блокируется:
// при переполненной очереди событие отбрасывается.
func (r *Relay) Forward(room rooms.ID, seq uint64, frame []byte) {
	msg := message{Node: r.nodeID, Room: room, Seq: seq, Frame: frame}

	select {
	case <-r.done:
		return
	default:
	}

	select {
	case r.out <- msg:
	default:
		r.dropped.Add(1)
		r.logger.Warn("relay queue full, event dropped", "room", room.String(), "seq", seq)
	}
}

// Run подписывается на канал и публикует очередь до отмены ctx или Close.
func (r *Relay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	// Дожидаемся подтверждения подписки, иначе ранние сообщения теряются
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	r.logger.Info("relay subscribed", "channel", r.channel, "node_id", r.nodeID)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.publishLoop(ctx)
	}()

	incoming := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil
		case <-r.done:
			cancel()
			wg.Wait()
			return nil
		case m, ok := <-incoming:
			if !ok {
				cancel()
				wg.Wait()
				return errors.New("relay subscription closed")
			}
			r.handle(m.Payload)
		}
	}
}

func (r *Relay) publishLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-r.out:
			data, err := json.Marshal(msg)
			if err != nil {
				r.logger.Error("failed to encode relay message", "error", err)
				continue
			}
			if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
				if ctx.Err() != nil {
					return
				}
				r.dropped.Add(1)
				r.logger.Error("failed to publish relay message", "room", msg.Room.String(), "error", err)
				continue
			}
			r.forwarded.Add(1)
		}
	}
}

func (r *Relay) handle(payload string) {
	var msg message
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		r.logger.Warn("malformed relay message", "error", err)
		return
	}
	if msg.Node == r.nodeID {
		return
	}

	r.received.Add(1)
	res := r.deliver.DeliverRemote(msg.Room, msg.Seq, msg.Frame)
	r.logger.Debug("relay event delivered",
		"room", msg.Room.String(),
		"origin_node", msg.Node,
		"delivered", res.Delivered,
		"dropped", res.Dropped)
}

// Close останавливает Run. Повторный вызов безопасен.
func (r *Relay) Close() {
	r.closeOnce.Do(func() { close(r.done) })
}

// Stats счетчики relay
type Stats struct {
	Forwarded uint64 `json:"forwarded"`
	Received  uint64 `json:"received"`
	Dropped   uint64 `json:"dropped"`
}

// Stats возвращает счетчики.
func (r *Relay) Stats() Stats {
	return Stats{
		Forwarded: r.forwarded.Load(),
		Received:  r.received.Load(),
		Dropped:   r.dropped.Load(),
	}
}
