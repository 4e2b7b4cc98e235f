package relay

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/boardsync/internal/realtime/dispatch"
	"github.com/iudanet/boardsync/internal/realtime/rooms"
)

// testRedisAddr requires Redis running on localhost:6379
const testRedisAddr = "localhost:6379"

type delivery struct {
	room  rooms.ID
	frame []byte
	seq   uint64
}

type recorder struct {
	got []delivery
	mu  sync.Mutex
}

func (r *recorder) DeliverRemote(room rooms.ID, seq uint64, frame []byte) dispatch.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, delivery{room: room, seq: seq, frame: frame})
	return dispatch.Result{Seq: seq, Delivered: 1}
}

func (r *recorder) snapshot() []delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]delivery(nil), r.got...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupClient(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: testRedisAddr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestForward_DropsWhenQueueFull(t *testing.T) {
	r := New(testLogger(), nil, "node-a", &recorder{}, WithBuffer(2))

	for i := range 5 {
		r.Forward(rooms.Board("b1"), uint64(i+1), []byte(`{}`))
	}

	assert.Len(t, r.out, 2)
	assert.Equal(t, uint64(3), r.Stats().Dropped)

	r.Close()
	r.Close()
	r.Forward(rooms.Board("b1"), 9, []byte(`{}`))
	assert.Len(t, r.out, 2, "closed relay ignores new events")
}

func TestHandle_SkipsOwnAndMalformed(t *testing.T) {
	rec := &recorder{}
	r := New(testLogger(), nil, "node-a", rec)

	own, err := json.Marshal(message{Node: "node-a", Room: rooms.Board("b1"), Seq: 1, Frame: json.RawMessage(`{"type":"x"}`)})
	require.NoError(t, err)
	foreign, err := json.Marshal(message{Node: "node-b", Room: rooms.Board("b1"), Seq: 7, Frame: json.RawMessage(`{"type":"y"}`)})
	require.NoError(t, err)

	r.handle(string(own))
	r.handle("not json")
	r.handle(string(foreign))

	got := rec.snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, rooms.Board("b1"), got[0].room)
	assert.Equal(t, uint64(7), got[0].seq)
	assert.JSONEq(t, `{"type":"y"}`, string(got[0].frame))
	assert.Equal(t, uint64(1), r.Stats().Received)
}

func TestRelay_CrossNode(t *testing.T) {
	client := setupClient(t)
	channel := "boardsync:test:" + uuid.NewString()

	recA, recB := &recorder{}, &recorder{}
	a := New(testLogger(), client, "node-a", recA, WithChannel(channel))
	b := New(testLogger(), client, "node-b", recB, WithChannel(channel))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errs := make(chan error, 2)
	go func() { errs <- a.Run(ctx) }()
	go func() { errs <- b.Run(ctx) }()

	// ждем подписки обоих узлов
	require.Eventually(t, func() bool {
		n, err := client.PubSubNumSub(ctx, channel).Result()
		return err == nil && n[channel] == 2
	}, 2*time.Second, 10*time.Millisecond)

	a.Forward(rooms.User("alice"), 3, []byte(`{"type":"notification:new"}`))

	require.Eventually(t, func() bool { return len(recB.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	got := recB.snapshot()[0]
	assert.Equal(t, rooms.User("alice"), got.room)
	assert.Equal(t, uint64(3), got.seq)

	// свой узел событие не получает
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, recA.snapshot())
	assert.Equal(t, uint64(1), a.Stats().Forwarded)

	a.Close()
	cancel()
	for range 2 {
		select {
		case err := <-errs:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("relay did not stop")
		}
	}
}
