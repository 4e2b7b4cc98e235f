package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/boardsync/internal/models"
	"github.com/iudanet/boardsync/internal/ordering"
	"github.com/iudanet/boardsync/internal/realtime/dispatch"
	"github.com/iudanet/boardsync/internal/realtime/events"
	"github.com/iudanet/boardsync/internal/realtime/presence"
	"github.com/iudanet/boardsync/internal/server/storage"
	"github.com/iudanet/boardsync/internal/validation"
	"github.com/iudanet/boardsync/pkg/api"
)

// SessionHeader id websocket сессии клиента, выполняющего запрос.
// Событие об изменении этой сессии не отправляется: клиент уже применил его у себя.
const SessionHeader = "X-Session-ID"

// Authorizer проверка роли на доске
type Authorizer interface {
	Require(ctx context.Context, userID, boardID, minRole string) (string, error)
}

// Publisher публикация событий в комнаты
type Publisher interface {
	Publish(env events.Envelope) dispatch.Result
}

// PresenceReader текущие пользователи доски
type PresenceReader interface {
	ActiveUsers(boardID string) []presence.Entry
}

// Notifier персональные уведомления
type Notifier interface {
	Notify(ctx context.Context, originUserID string, n *models.Notification) error
}

// Evictor выводит сессии пользователя из комнаты доски
type Evictor interface {
	EvictFromBoard(userID, boardID string) int
}

// BoardDeps зависимости BoardHandler
type BoardDeps struct {
	Boards   storage.BoardStorage
	Lists    storage.ListStorage
	Cards    storage.CardStorage
	Users    storage.UserStorage
	Access   Authorizer
	Ordering *ordering.Engine
	Events   Publisher
	Presence PresenceReader
	Notifier Notifier
	Sessions Evictor
}

// BoardHandler REST операции над досками, списками, карточками и участниками.
// Каждая успешная мутация рассылается событием в комнату доски.
type BoardHandler struct {
	responder
	deps BoardDeps
}

// NewBoardHandler создает handler досок
func NewBoardHandler(logger *slog.Logger, deps BoardDeps) *BoardHandler {
	return &BoardHandler{
		responder: responder{logger: logger},
		deps:      deps,
	}
}

// PresenceResponse активные пользователи доски
type PresenceResponse struct {
	BoardID     string           `json:"boardId"`
	ActiveUsers []presence.Entry `json:"activeUsers"`
}

// authorize проверяет, что текущий пользователь имеет на доске роль не ниже minRole
func (h *BoardHandler) authorize(w http.ResponseWriter, r *http.Request, boardID, minRole string) (string, bool) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return "", false
	}
	if _, err := h.deps.Access.Require(r.Context(), userID, boardID, minRole); err != nil {
		h.fail(w, r, err)
		return "", false
	}
	return userID, true
}

// publish рассылает событие, исключая сессию инициатора
func (h *BoardHandler) publish(r *http.Request, env events.Envelope) {
	if sid := r.Header.Get(SessionHeader); sid != "" {
		env = env.Except(sid)
	}
	res := h.deps.Events.Publish(env)
	h.logger.DebugContext(r.Context(), "event published",
		slog.String("type", string(env.Type())),
		slog.String("room", env.Room.String()),
		slog.Uint64("seq", res.Seq),
		slog.Int("delivered", res.Delivered))
}

// ListBoards обрабатывает GET /api/v1/boards
func (h *BoardHandler) ListBoards(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	boards, err := h.deps.Boards.ListUserBoards(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if boards == nil {
		boards = []*models.Board{}
	}
	h.sendJSON(w, boards, http.StatusOK)
}

// CreateBoard обрабатывает POST /api/v1/boards
// Создатель становится владельцем доски
func (h *BoardHandler) CreateBoard(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req api.CreateBoardRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := validation.ValidateTitle("title", req.Title); err != nil {
		h.fail(w, r, err)
		return
	}

	board := &models.Board{
		ID:        uuid.NewString(),
		Title:     req.Title,
		OwnerID:   userID,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.deps.Boards.CreateBoard(r.Context(), board); err != nil {
		h.fail(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "board created",
		slog.String("board_id", board.ID),
		slog.String("user_id", userID))
	h.sendJSON(w, board, http.StatusCreated)
}

// GetBoard обрабатывает GET /api/v1/boards/{boardID}
func (h *BoardHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	boardID := r.PathValue("boardID")
	if _, ok := h.authorize(w, r, boardID, models.RoleMember); !ok {
		return
	}

	board, err := h.deps.Boards.GetBoard(ctx, boardID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	lists, err := h.deps.Lists.ListLists(ctx, boardID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := api.BoardResponse{Board: board, Lists: make([]api.ListResponse, 0, len(lists))}
	for _, l := range lists {
		cards, err := h.deps.Cards.ListCards(ctx, l.ID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if cards == nil {
			cards = []*models.Card{}
		}
		resp.Lists = append(resp.Lists, api.ListResponse{List: l, Cards: cards})
	}

	h.sendJSON(w, resp, http.StatusOK)
}

// Presence обрабатывает GET /api/v1/boards/{boardID}/presence
func (h *BoardHandler) Presence(w http.ResponseWriter, r *http.Request) {
	boardID := r.PathValue("boardID")
	if _, ok := h.authorize(w, r, boardID, models.RoleMember); !ok {
		return
	}

	active := h.deps.Presence.ActiveUsers(boardID)
	if active == nil {
		active = []presence.Entry{}
	}
	h.sendJSON(w, PresenceResponse{BoardID: boardID, ActiveUsers: active}, http.StatusOK)
}
