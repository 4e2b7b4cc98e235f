package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/boardsync/internal/models"
	"github.com/iudanet/boardsync/internal/ordering"
	"github.com/iudanet/boardsync/internal/realtime/dispatch"
	"github.com/iudanet/boardsync/internal/realtime/events"
	"github.com/iudanet/boardsync/internal/realtime/presence"
	"github.com/iudanet/boardsync/internal/server/access"
	"github.com/iudanet/boardsync/internal/server/storage/sqlite"
)

// setupTestLogger creates a logger for testing
func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingPublisher запоминает опубликованные события
type recordingPublisher struct {
	envs []events.Envelope
	mu   sync.Mutex
}

func (p *recordingPublisher) Publish(env events.Envelope) dispatch.Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.envs = append(p.envs, env)
	return dispatch.Result{Seq: uint64(len(p.envs)), Delivered: 1}
}

func (p *recordingPublisher) ofType(typ events.Type) []events.Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []events.Envelope
	for _, env := range p.envs {
		if env.Type() == typ {
			out = append(out, env)
		}
	}
	return out
}

type presenceFunc func(boardID string) []presence.Entry

func (f presenceFunc) ActiveUsers(boardID string) []presence.Entry { return f(boardID) }

type recordingNotifier struct {
	notes []*models.Notification
	err   error
}

func (n *recordingNotifier) Notify(_ context.Context, _ string, note *models.Notification) error {
	n.notes = append(n.notes, note)
	return n.err
}

type recordingEvictor struct {
	calls []string
}

func (e *recordingEvictor) EvictFromBoard(userID, boardID string) int {
	e.calls = append(e.calls, userID+"@"+boardID)
	return 1
}

type boardEnv struct {
	store    *sqlite.Storage
	mux      *http.ServeMux
	events   *recordingPublisher
	notifier *recordingNotifier
	evictor  *recordingEvictor
	alice    *models.User
	bob      *models.User
	carol    *models.User
}

func setupBoardEnv(t *testing.T) *boardEnv {
	t.Helper()
	ctx := context.Background()
	logger := setupTestLogger()

	store, err := sqlite.New(ctx, logger, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	env := &boardEnv{
		store:    store,
		events:   &recordingPublisher{},
		notifier: &recordingNotifier{},
		evictor:  &recordingEvictor{},
	}
	env.alice = createUser(t, store, "alice")
	env.bob = createUser(t, store, "bob")
	env.carol = createUser(t, store, "carol")

	h := NewBoardHandler(logger, BoardDeps{
		Boards:   store,
		Lists:    store,
		Cards:    store,
		Users:    store,
		Access:   access.New(store),
		Ordering: ordering.NewEngine(logger),
		Events:   env.events,
		Presence: presenceFunc(func(boardID string) []presence.Entry {
			return []presence.Entry{{UserID: env.alice.ID, Username: "alice"}}
		}),
		Notifier: env.notifier,
		Sessions: env.evictor,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /boards", h.ListBoards)
	mux.HandleFunc("POST /boards", h.CreateBoard)
	mux.HandleFunc("GET /boards/{boardID}", h.GetBoard)
	mux.HandleFunc("GET /boards/{boardID}/presence", h.Presence)
	mux.HandleFunc("GET /boards/{boardID}/members", h.ListMembers)
	mux.HandleFunc("POST /boards/{boardID}/members", h.AddMember)
	mux.HandleFunc("PATCH /boards/{boardID}/members/{userID}", h.UpdateMember)
	mux.HandleFunc("DELETE /boards/{boardID}/members/{userID}", h.RemoveMember)
	mux.HandleFunc("POST /boards/{boardID}/lists", h.CreateList)
	mux.HandleFunc("PUT /boards/{boardID}/lists/order", h.ReorderLists)
	mux.HandleFunc("PATCH /lists/{listID}", h.UpdateList)
	mux.HandleFunc("DELETE /lists/{listID}", h.DeleteList)
	mux.HandleFunc("POST /lists/{listID}/cards", h.CreateCard)
	mux.HandleFunc("PUT /lists/{listID}/cards/order", h.ReorderCards)
	mux.HandleFunc("PATCH /cards/{cardID}", h.UpdateCard)
	mux.HandleFunc("DELETE /cards/{cardID}", h.DeleteCard)
	mux.HandleFunc("POST /cards/{cardID}/move", h.MoveCard)
	mux.HandleFunc("POST /cards/{cardID}/comments", h.AddComment)
	mux.HandleFunc("GET /cards/{cardID}/comments", h.ListComments)
	env.mux = mux

	return env
}

func createUser(t *testing.T, store *sqlite.Storage, username string) *models.User {
	t.Helper()
	now := time.Now().UTC()
	u := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, store.CreateUser(context.Background(), u))
	return u
}

// do выполняет запрос от имени пользователя (nil означает без аутентификации)
func (e *boardEnv) do(t *testing.T, user *models.User, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	if user != nil {
		req = req.WithContext(WithUser(req.Context(), user.ID, user.Username))
	}

	w := httptest.NewRecorder()
	e.mux.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v), w.Body.String())
	return v
}
