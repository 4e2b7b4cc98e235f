package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/boardsync/internal/client/api"
	"github.com/iudanet/boardsync/internal/client/iocli"
	"github.com/iudanet/boardsync/internal/client/storage"
	"github.com/iudanet/boardsync/internal/client/storage/boltdb"
	"github.com/iudanet/boardsync/internal/config"
	"github.com/iudanet/boardsync/internal/realtime/events"
	"github.com/iudanet/boardsync/internal/server"
)

// scriptedIO IOMock с заранее заданным вводом и записью вывода
type scriptedIO struct {
	*iocli.IOMock
	out    strings.Builder
	inputs []string
}

func newScriptedIO(inputs ...string) *scriptedIO {
	s := &scriptedIO{inputs: inputs}
	next := func(prompt string) (string, error) {
		if len(s.inputs) == 0 {
			return "", io.EOF
		}
		v := s.inputs[0]
		s.inputs = s.inputs[1:]
		return v, nil
	}
	s.IOMock = &iocli.IOMock{
		PrintlnFunc:      func(a ...any) { fmt.Fprintln(&s.out, a...) },
		PrintfFunc:       func(format string, a ...any) { fmt.Fprintf(&s.out, format, a...) },
		ReadInputFunc:    next,
		ReadPasswordFunc: next,
		WriteFunc:        func(p []byte) (int, error) { return s.out.Write(p) },
	}
	return s
}

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		DatabasePath:    ":memory:",
		InboxPath:       filepath.Join(t.TempDir(), "inbox.db"),
		JWTSecret:       "0123456789abcdef0123456789abcdef",
		TokenTTL:        time.Hour,
		CursorInterval:  50 * time.Millisecond,
		CursorIdle:      time.Second,
		AuthTimeout:     5 * time.Second,
		ProfileCacheTTL: time.Minute,
		RateWindow:      time.Minute,
		OutboxSize:      64,
		RateLimit:       1000,
		AuthRateLimit:   100,
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app, err := server.New(context.Background(), logger, cfg, "test")
	require.NoError(t, err)

	srv := httptest.NewServer(app.Handler())
	t.Cleanup(func() {
		srv.Close()
		_ = app.Shutdown(context.Background())
	})
	return srv
}

func setupCli(t *testing.T, srv *httptest.Server, io *scriptedIO) (*Cli, *boltdb.Storage) {
	t.Helper()

	store, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return New(io, api.NewClient(srv.URL), store), store
}

func TestCli_Usage(t *testing.T) {
	out := newScriptedIO()
	c := New(out, api.NewClient("http://localhost:0"), nil)

	err := c.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUsage)
	assert.Contains(t, out.out.String(), "Commands:")
	assert.Contains(t, out.out.String(), "move-card <card-id> <list-id> <index>")

	err = c.Run(context.Background(), []string{"fly"})
	assert.ErrorIs(t, err, ErrUsage)
	assert.Contains(t, err.Error(), `"fly"`)
}

func TestCli_RequiresSession(t *testing.T) {
	srv := setupServer(t)
	out := newScriptedIO()
	c, store := setupCli(t, srv, out)
	ctx := context.Background()

	err := c.Run(ctx, []string{"boards"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boardsync login")

	require.NoError(t, store.SaveAuth(ctx, &storage.AuthData{
		Username:    "ghost",
		AccessToken: "stale",
		ExpiresAt:   time.Now().Add(-time.Minute).Unix(),
	}))
	err = c.Run(ctx, []string{"boards"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")

	require.NoError(t, c.Run(ctx, []string{"status"}))
	assert.Contains(t, out.out.String(), "Status: Expired")
}

func TestCli_RegisterValidation(t *testing.T) {
	srv := setupServer(t)

	tests := []struct {
		name   string
		errMsg string
		inputs []string
	}{
		{name: "bad username", inputs: []string{"a!"}, errMsg: "username"},
		{name: "short password", inputs: []string{"alice", "short"}, errMsg: "password"},
		{name: "mismatch", inputs: []string{"alice", "password123", "password124"}, errMsg: "do not match"},
		{name: "bad avatar", inputs: []string{"alice", "password123", "password123", "ftp://x"}, errMsg: "avatar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := setupCli(t, srv, newScriptedIO(tt.inputs...))
			err := c.Run(context.Background(), []string{"register"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestCli_BoardWorkflow(t *testing.T) {
	srv := setupServer(t)
	ctx := context.Background()

	// bob регистрируется отдельным клиентом
	bobIO := newScriptedIO("bob", "password123", "password123", "")
	bobCli, _ := setupCli(t, srv, bobIO)
	require.NoError(t, bobCli.Run(ctx, []string{"register"}))

	out := newScriptedIO("alice", "password123", "password123", "https://example.com/a.png")
	c, store := setupCli(t, srv, out)
	require.NoError(t, c.Run(ctx, []string{"register"}))
	assert.Contains(t, out.out.String(), "Login successful")

	auth, err := store.GetAuth(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", auth.Username)
	assert.Equal(t, srv.URL, auth.ServerURL)

	client := api.NewClient(srv.URL).WithToken(auth.AccessToken)

	require.NoError(t, c.Run(ctx, []string{"create-board", "Product", "Roadmap"}))
	boards, err := client.ListBoards(ctx)
	require.NoError(t, err)
	require.Len(t, boards, 1)
	assert.Equal(t, "Product Roadmap", boards[0].Title)
	boardID := boards[0].ID

	require.Error(t, c.Run(ctx, []string{"add-list", boardID}), "title is required")
	require.NoError(t, c.Run(ctx, []string{"add-list", boardID, "Todo"}))
	require.NoError(t, c.Run(ctx, []string{"add-list", boardID, "Done"}))

	board, err := client.GetBoard(ctx, boardID)
	require.NoError(t, err)
	require.Len(t, board.Lists, 2)
	todo, done := board.Lists[0].List.ID, board.Lists[1].List.ID

	require.NoError(t, c.Run(ctx, []string{"add-card", todo, "Write", "docs"}))
	board, err = client.GetBoard(ctx, boardID)
	require.NoError(t, err)
	require.Len(t, board.Lists[0].Cards, 1)
	cardID := board.Lists[0].Cards[0].ID

	err = c.Run(ctx, []string{"move-card", cardID, done, "first"})
	assert.ErrorIs(t, err, ErrUsage)
	require.NoError(t, c.Run(ctx, []string{"move-card", cardID, done, "0"}))

	out.out.Reset()
	require.NoError(t, c.Run(ctx, []string{"show", boardID}))
	shown := out.out.String()
	assert.Contains(t, shown, "=== Product Roadmap ===")
	assert.Contains(t, shown, "(empty)")
	assert.Contains(t, shown, "1. Write docs")

	require.NoError(t, c.Run(ctx, []string{"invite", boardID, "bob"}))
	assert.Contains(t, out.out.String(), "bob added as member")

	bobIO.out.Reset()
	require.NoError(t, bobCli.Run(ctx, []string{"notifications"}))
	assert.Contains(t, bobIO.out.String(), `alice added you to board "Product Roadmap"`)

	require.NoError(t, c.Run(ctx, []string{"logout"}))
	_, err = store.GetAuth(ctx)
	assert.ErrorIs(t, err, storage.ErrAuthNotFound)
}

func TestCli_Watch(t *testing.T) {
	srv := setupServer(t)
	ctx := context.Background()

	out := newScriptedIO("alice", "password123", "password123", "")
	c, store := setupCli(t, srv, out)
	require.NoError(t, c.Run(ctx, []string{"register"}))

	auth, err := store.GetAuth(ctx)
	require.NoError(t, err)
	client := api.NewClient(srv.URL).WithToken(auth.AccessToken)
	board, err := client.CreateBoard(ctx, "Live")
	require.NoError(t, err)

	watchCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	frames := make(chan events.Frame, 8)
	done := make(chan error, 1)
	go func() {
		done <- client.Watch(watchCtx, []string{board.ID}, func(f events.Frame) error {
			frames <- f
			return nil
		})
	}()

	waitFor := func(typ events.Type) events.Frame {
		for {
			select {
			case f := <-frames:
				if f.Type == typ {
					return f
				}
			case <-watchCtx.Done():
				t.Fatalf("timed out waiting for %s", typ)
			}
		}
	}
	waitFor(events.TypeBoardJoined)

	_, err = client.CreateList(ctx, board.ID, "Incoming")
	require.NoError(t, err)
	created := waitFor(events.TypeListCreated)
	assert.Contains(t, describe(created), "list:created [board:"+board.ID+"]")
	assert.Contains(t, describe(created), "Incoming")

	cancel()
	require.NoError(t, <-done)
}

func TestDescribe(t *testing.T) {
	f := events.Frame{Type: events.TypePong, Data: []byte("{}")}
	assert.Equal(t, "pong", describe(f))

	f = events.Frame{Type: events.TypeUserLeft, Room: "board:b1", Seq: 7, Data: []byte(`{"userId":"u1"}`)}
	assert.Equal(t, `#7 board:user-left [board:b1] {"userId":"u1"}`, describe(f))
}

func TestCli_LogoutWithoutSession(t *testing.T) {
	out := newScriptedIO()
	store, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	defer store.Close()

	c := New(out, api.NewClient("http://localhost:0"), store)
	require.NoError(t, c.Run(context.Background(), []string{"logout"}))
	assert.Contains(t, out.out.String(), "Not logged in.")
}
