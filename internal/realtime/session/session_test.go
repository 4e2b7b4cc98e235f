package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/boardsync/internal/clock"
	"github.com/iudanet/boardsync/internal/models"
	"github.com/iudanet/boardsync/internal/realtime/dispatch"
	"github.com/iudanet/boardsync/internal/realtime/events"
	"github.com/iudanet/boardsync/internal/realtime/presence"
	"github.com/iudanet/boardsync/internal/realtime/rooms"
)

type harness struct {
	manager  *Manager
	registry *rooms.Registry
	presence *presence.Tracker
	boards   *BoardAuthorizerMock
}

func setupManager(t *testing.T) *harness {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := rooms.New(logger, rooms.WithStrictInvariants(true))
	tracker := presence.New(logger, presence.WithStrictInvariants(true))
	dispatcher := dispatch.New(logger, registry, clock.New())

	identity := &IdentityVerifierMock{
		VerifyIdentityFunc: func(ctx context.Context, token string) (string, error) {
			if user, ok := strings.CutPrefix(token, "tok-"); ok {
				return user, nil
			}
			return "", errors.New("token is malformed")
		},
	}
	boards := &BoardAuthorizerMock{
		AuthorizeBoardAccessFunc: func(ctx context.Context, userID, boardID string) (bool, error) {
			switch boardID {
			case "secret":
				return false, nil
			case "missing":
				return false, fmt.Errorf("board lookup: %w", ErrNotFound)
			case "broken":
				return false, errors.New("database is locked")
			}
			return true, nil
		},
	}
	profiles := &ProfileLookupMock{
		LookupUserProfileFunc: func(ctx context.Context, userID string) (models.UserProfile, error) {
			if userID == "ghost" {
				return models.UserProfile{}, ErrNotFound
			}
			return models.UserProfile{UserID: userID, Username: userID, AvatarURL: userID + ".png"}, nil
		},
	}

	m := NewManager(logger, Deps{
		Registry:   registry,
		Presence:   tracker,
		Dispatcher: dispatcher,
		Identity:   identity,
		Boards:     boards,
		Profiles:   profiles,
	}, WithOutboxSize(64))
	t.Cleanup(m.Close)

	return &harness{manager: m, registry: registry, presence: tracker, boards: boards}
}

func message(t *testing.T, typ string, data any) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"type": typ, "data": data})
	require.NoError(t, err)
	return raw
}

func drain(t *testing.T, s *Session) []events.Frame {
	t.Helper()
	var out []events.Frame
	for {
		select {
		case raw, ok := <-s.Outbox():
			if !ok {
				return out
			}
			f, err := events.DecodeFrame(raw)
			require.NoError(t, err)
			out = append(out, f)
		default:
			return out
		}
	}
}

func ofType(frames []events.Frame, typ events.Type) []events.Frame {
	var out []events.Frame
	for _, f := range frames {
		if f.Type == typ {
			out = append(out, f)
		}
	}
	return out
}

func decodeData[T any](t *testing.T, f events.Frame) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(f.Data, &v))
	return v
}

func (h *harness) login(t *testing.T, user string) *Session {
	t.Helper()
	s := h.manager.Open()
	require.NoError(t, s.Handle(context.Background(), message(t, "auth", map[string]string{"token": "tok-" + user})))
	drain(t, s)
	return s
}

func TestSession_UnauthenticatedRejected(t *testing.T) {
	h := setupManager(t)
	s := h.manager.Open()

	tests := []struct {
		name string
		typ  string
		data any
	}{
		{name: "join", typ: "board:join", data: map[string]string{"boardId": "1"}},
		{name: "leave", typ: "board:leave", data: map[string]string{"boardId": "1"}},
		{name: "cursor", typ: "cursor:move", data: map[string]any{"boardId": "1", "x": 1, "y": 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Handle(context.Background(), message(t, tt.typ, tt.data))
			assert.ErrorIs(t, err, ErrUnauthorized)

			frames := drain(t, s)
			require.Len(t, frames, 1)
			assert.Equal(t, events.TypeError, frames[0].Type)
			assert.Equal(t, CodeUnauthorized, decodeData[events.Error](t, frames[0]).Code)
			assert.Equal(t, StateUnauthenticated, s.State(), "connection stays open")
		})
	}

	assert.Empty(t, h.boards.AuthorizeBoardAccessCalls())
}

func TestSession_Authenticate(t *testing.T) {
	h := setupManager(t)
	s := h.manager.Open()

	require.NoError(t, s.Handle(context.Background(), message(t, "auth", map[string]string{"token": "tok-alice"})))

	assert.Equal(t, StateAuthenticated, s.State())
	assert.Equal(t, "alice", s.UserID())
	assert.Equal(t, []rooms.ID{rooms.User("alice")}, h.registry.RoomsOf(s.ID()), "personal room auto-joined")

	frames := drain(t, s)
	require.Len(t, frames, 1)
	assert.Equal(t, events.TypeAuthenticated, frames[0].Type)
	ok := decodeData[events.Authenticated](t, frames[0])
	assert.Equal(t, s.ID(), ok.SessionID)
	assert.Equal(t, "alice", ok.UserID)

	err := s.Authenticate(context.Background(), "tok-alice")
	assert.ErrorIs(t, err, ErrBadRequest, "second authentication is rejected")
}

func TestSession_AuthenticateFailures(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		wantCode string
	}{
		{name: "empty token", token: "", wantCode: CodeUnauthorized},
		{name: "invalid token", token: "garbage", wantCode: CodeUnauthorized},
		{name: "unknown user", token: "tok-ghost", wantCode: CodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := setupManager(t)
			s := h.manager.Open()

			err := s.Authenticate(context.Background(), tt.token)
			assert.ErrorIs(t, err, ErrUnauthorized)
			assert.Equal(t, StateUnauthenticated, s.State())

			frames := drain(t, s)
			require.Len(t, frames, 1)
			assert.Equal(t, tt.wantCode, decodeData[events.Error](t, frames[0]).Code)
		})
	}
}

func TestSession_JoinScenario(t *testing.T) {
	h := setupManager(t)
	ctx := context.Background()

	a := h.login(t, "alice")
	require.NoError(t, a.Handle(ctx, message(t, "board:join", map[string]string{"boardId": "1"})))

	framesA := drain(t, a)
	require.Len(t, framesA, 1)
	assert.Equal(t, events.TypeBoardJoined, framesA[0].Type)
	joinedA := decodeData[events.BoardJoined](t, framesA[0])
	assert.Equal(t, "1", joinedA.BoardID)
	require.Len(t, joinedA.ActiveUsers, 1)
	assert.Equal(t, "alice", joinedA.ActiveUsers[0].UserID)

	b := h.login(t, "bob")
	require.NoError(t, b.Handle(ctx, message(t, "board:join", map[string]string{"boardId": "1"})))

	framesB := drain(t, b)
	require.Len(t, framesB, 1)
	joinedB := decodeData[events.BoardJoined](t, framesB[0])
	require.Len(t, joinedB.ActiveUsers, 2)
	assert.Equal(t, "alice", joinedB.ActiveUsers[0].UserID)
	assert.Equal(t, "bob", joinedB.ActiveUsers[1].UserID)

	framesA = drain(t, a)
	require.Len(t, framesA, 1)
	assert.Equal(t, events.TypeUserJoined, framesA[0].Type)
	assert.Equal(t, "board:1", framesA[0].Room)
	userJoined := decodeData[events.UserJoined](t, framesA[0])
	assert.Equal(t, events.UserJoined{UserID: "bob", Username: "bob", AvatarURL: "bob.png"}, userJoined)
}

func TestSession_MultipleTabsSinglePresence(t *testing.T) {
	h := setupManager(t)
	ctx := context.Background()

	watcher := h.login(t, "bob")
	require.NoError(t, watcher.JoinBoard(ctx, "1"))
	drain(t, watcher)

	const tabs = 3
	sessions := make([]*Session, tabs)
	for i := range sessions {
		sessions[i] = h.login(t, "alice")
		require.NoError(t, sessions[i].JoinBoard(ctx, "1"))
	}

	assert.Len(t, ofType(drain(t, watcher), events.TypeUserJoined), 1)
	assert.Len(t, h.presence.ActiveUsers("1"), 2)

	for _, s := range sessions {
		s.Close()
	}

	left := ofType(drain(t, watcher), events.TypeUserLeft)
	require.Len(t, left, 1)
	assert.Equal(t, "alice", decodeData[events.UserLeft](t, left[0]).UserID)
	assert.Len(t, h.presence.ActiveUsers("1"), 1)
}

func TestSession_JoinErrors(t *testing.T) {
	tests := []struct {
		name     string
		boardID  string
		wantErr  error
		wantCode string
	}{
		{name: "not a member", boardID: "secret", wantErr: ErrAccessDenied, wantCode: CodeAccessDenied},
		{name: "missing board", boardID: "missing", wantErr: ErrNotFound, wantCode: CodeNotFound},
		{name: "empty board id", boardID: "", wantErr: ErrBadRequest, wantCode: CodeBadRequest},
		{name: "collaborator failure", boardID: "broken", wantCode: CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := setupManager(t)
			s := h.login(t, "alice")

			err := s.Handle(context.Background(), message(t, "board:join", map[string]string{"boardId": tt.boardID}))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}

			frames := drain(t, s)
			require.Len(t, frames, 1)
			payload := decodeData[events.Error](t, frames[0])
			assert.Equal(t, tt.wantCode, payload.Code)
			if tt.wantCode == CodeInternal {
				assert.Equal(t, "internal error", payload.Message, "internal details are hidden")
			}

			assert.Empty(t, s.Boards())
			assert.Empty(t, h.presence.ActiveUsers(tt.boardID))
			assert.Equal(t, StateAuthenticated, s.State())
		})
	}
}

func TestSession_LeaveBoard(t *testing.T) {
	h := setupManager(t)
	ctx := context.Background()

	a := h.login(t, "alice")
	b := h.login(t, "bob")
	require.NoError(t, a.JoinBoard(ctx, "1"))
	require.NoError(t, b.JoinBoard(ctx, "1"))
	drain(t, a)
	drain(t, b)

	require.NoError(t, b.Handle(ctx, message(t, "board:leave", map[string]string{"boardId": "1"})))
	require.NoError(t, b.LeaveBoard("1"), "leaving twice is a no-op")

	left := ofType(drain(t, a), events.TypeUserLeft)
	require.Len(t, left, 1)
	assert.Equal(t, events.UserLeft{UserID: "bob", Username: "bob"}, decodeData[events.UserLeft](t, left[0]))
	assert.Empty(t, drain(t, b), "leaver does not receive its own user-left")

	members, err := h.registry.MembersOf(rooms.Board("1"))
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID()}, members)
}

func TestSession_Close(t *testing.T) {
	h := setupManager(t)
	ctx := context.Background()

	s := h.login(t, "alice")
	require.NoError(t, s.JoinBoard(ctx, "1"))
	require.NoError(t, s.JoinBoard(ctx, "2"))
	drain(t, s)
	assert.Equal(t, 1, h.manager.Count())

	s.Close()
	s.Close()

	assert.Equal(t, StateClosed, s.State())
	assert.Empty(t, h.registry.RoomsOf(s.ID()))
	assert.Empty(t, h.presence.ActiveUsers("1"))
	assert.Empty(t, h.presence.ActiveUsers("2"))
	assert.Equal(t, 0, h.manager.Count())

	_, open := <-s.Outbox()
	assert.False(t, open, "outbox closed")

	err := s.Handle(ctx, message(t, "board:join", map[string]string{"boardId": "1"}))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSession_Cursor(t *testing.T) {
	h := setupManager(t)
	ctx := context.Background()

	a := h.login(t, "alice")
	b := h.login(t, "bob")
	require.NoError(t, a.JoinBoard(ctx, "1"))
	require.NoError(t, b.JoinBoard(ctx, "1"))
	drain(t, a)
	drain(t, b)

	require.NoError(t, a.Handle(ctx, message(t, "cursor:move", map[string]any{"boardId": "1", "x": 10.5, "y": 20})))

	cursors := ofType(drain(t, b), events.TypeCursorUpdated)
	require.Len(t, cursors, 1)
	assert.Equal(t, events.CursorUpdated{
		BoardID: "1", UserID: "alice", Username: "alice", AvatarURL: "alice.png", X: 10.5, Y: 20,
	}, decodeData[events.CursorUpdated](t, cursors[0]))
	assert.Empty(t, drain(t, a), "sender does not get its own cursor")

	err := a.MoveCursor("2", 1, 1)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestSession_BadMessages(t *testing.T) {
	h := setupManager(t)
	s := h.login(t, "alice")
	ctx := context.Background()

	tests := []struct {
		name string
		raw  string
	}{
		{name: "malformed json", raw: `{"type":`},
		{name: "unknown type", raw: `{"type":"board:explode"}`},
		{name: "missing data", raw: `{"type":"board:join"}`},
		{name: "wrong data", raw: `{"type":"cursor:move","data":{"x":"left"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Handle(ctx, []byte(tt.raw))
			assert.ErrorIs(t, err, ErrBadRequest)

			frames := drain(t, s)
			require.Len(t, frames, 1)
			assert.Equal(t, CodeBadRequest, decodeData[events.Error](t, frames[0]).Code)
		})
	}
}

func TestSession_Ping(t *testing.T) {
	h := setupManager(t)
	s := h.manager.Open()

	require.NoError(t, s.Handle(context.Background(), []byte(`{"type":"ping"}`)))

	frames := drain(t, s)
	require.Len(t, frames, 1)
	assert.Equal(t, events.TypePong, frames[0].Type)
}

func TestSession_PersonalRoomDelivery(t *testing.T) {
	h := setupManager(t)

	tab1 := h.login(t, "alice")
	tab2 := h.login(t, "alice")
	other := h.login(t, "bob")

	res := h.manager.dispatcher.Publish(events.ToUser("alice", "", events.NotificationNew{
		Notification: models.Notification{ID: "n1", UserID: "alice", Message: "hi"},
	}))
	assert.Equal(t, 2, res.Delivered)

	assert.Len(t, drain(t, tab1), 1)
	assert.Len(t, drain(t, tab2), 1)
	assert.Empty(t, drain(t, other))
}

func TestManager_EvictFromBoard(t *testing.T) {
	h := setupManager(t)
	ctx := context.Background()

	a1 := h.login(t, "alice")
	a2 := h.login(t, "alice")
	b := h.login(t, "bob")
	for _, s := range []*Session{a1, a2, b} {
		require.NoError(t, s.JoinBoard(ctx, "b1"))
	}
	require.NoError(t, a1.JoinBoard(ctx, "b2"))
	drain(t, a1)
	drain(t, a2)
	drain(t, b)

	assert.Equal(t, 2, h.manager.EvictFromBoard("alice", "b1"))

	assert.Equal(t, []string{"b2"}, a1.Boards())
	assert.Empty(t, a2.Boards())
	assert.Equal(t, 0, h.presence.Sessions("b1", "alice"))

	left := ofType(drain(t, b), events.TypeUserLeft)
	require.Len(t, left, 1, "user-left is broadcast once for the last session")
	assert.Equal(t, "alice", decodeData[events.UserLeft](t, left[0]).UserID)

	assert.Equal(t, 0, h.manager.EvictFromBoard("alice", "b1"), "second eviction is a no-op")
	assert.Equal(t, 0, h.manager.EvictFromBoard("carol", "b1"))
}
