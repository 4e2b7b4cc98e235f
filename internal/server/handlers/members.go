package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/iudanet/boardsync/internal/models"
	"github.com/iudanet/boardsync/internal/realtime/events"
	"github.com/iudanet/boardsync/internal/realtime/session"
	"github.com/iudanet/boardsync/internal/server/access"
	"github.com/iudanet/boardsync/internal/validation"
	"github.com/iudanet/boardsync/pkg/api"
)

// assignableRole роль, которую можно выдать через API. Владелец один и назначается при создании.
func assignableRole(role string) error {
	if !access.ValidRole(role) || role == models.RoleOwner {
		return fmt.Errorf("%w: role must be %q or %q", validation.ErrInvalid, models.RoleMember, models.RoleAdmin)
	}
	return nil
}

// ListMembers обрабатывает GET /api/v1/boards/{boardID}/members
func (h *BoardHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	boardID := r.PathValue("boardID")
	if _, ok := h.authorize(w, r, boardID, models.RoleMember); !ok {
		return
	}

	members, err := h.deps.Boards.ListMembers(r.Context(), boardID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if members == nil {
		members = []*models.Member{}
	}
	h.sendJSON(w, members, http.StatusOK)
}

// AddMember обрабатывает POST /api/v1/boards/{boardID}/members
// Требует роль admin. Добавленный пользователь получает уведомление.
func (h *BoardHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	boardID := r.PathValue("boardID")
	userID, ok := h.authorize(w, r, boardID, models.RoleAdmin)
	if !ok {
		return
	}

	var req api.AddMemberRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Role == "" {
		req.Role = models.RoleMember
	}
	if err := validation.ValidateUsername(req.Username); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := assignableRole(req.Role); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.deps.Users.GetUserByUsername(ctx, req.Username)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	member, err := h.deps.Boards.AddMember(ctx, boardID, user.ID, req.Role)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.publish(r, events.ToBoard(boardID, userID, events.MemberAdded{Member: *member}))

	title := boardID
	if board, err := h.deps.Boards.GetBoard(ctx, boardID); err == nil {
		title = board.Title
	}
	actor, _ := GetUsername(ctx)
	n := &models.Notification{
		UserID:  user.ID,
		Kind:    string(events.TypeMemberAdded),
		BoardID: boardID,
		Message: fmt.Sprintf("%s added you to board %q as %s", actor, title, req.Role),
	}
	if err := h.deps.Notifier.Notify(ctx, userID, n); err != nil {
		// участник уже добавлен, уведомление не критично
		h.logger.WarnContext(ctx, "failed to notify new member",
			slog.String("board_id", boardID),
			slog.String("user_id", user.ID),
			slog.Any("error", err))
	}

	h.logger.InfoContext(ctx, "member added",
		slog.String("board_id", boardID),
		slog.String("user_id", user.ID),
		slog.String("role", req.Role))
	h.sendJSON(w, member, http.StatusCreated)
}

// UpdateMember обрабатывает PATCH /api/v1/boards/{boardID}/members/{userID}
func (h *BoardHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	boardID := r.PathValue("boardID")
	target := r.PathValue("userID")
	userID, ok := h.authorize(w, r, boardID, models.RoleAdmin)
	if !ok {
		return
	}

	var req api.UpdateMemberRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := assignableRole(req.Role); err != nil {
		h.fail(w, r, err)
		return
	}

	current, err := h.deps.Boards.GetMemberRole(ctx, boardID, target)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if current == models.RoleOwner {
		h.fail(w, r, fmt.Errorf("owner role cannot be changed: %w", session.ErrAccessDenied))
		return
	}

	member, err := h.deps.Boards.UpdateMemberRole(ctx, boardID, target, req.Role)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.publish(r, events.ToBoard(boardID, userID, events.MemberUpdated{Member: *member}))
	h.sendJSON(w, member, http.StatusOK)
}

// RemoveMember обрабатывает DELETE /api/v1/boards/{boardID}/members/{userID}
// Участник может покинуть доску сам, удалить другого может admin.
// Владельца удалить нельзя.
func (h *BoardHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	boardID := r.PathValue("boardID")
	target := r.PathValue("userID")

	caller, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	minRole := models.RoleAdmin
	if caller == target {
		minRole = models.RoleMember
	}
	if _, ok := h.authorize(w, r, boardID, minRole); !ok {
		return
	}

	current, err := h.deps.Boards.GetMemberRole(ctx, boardID, target)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if current == models.RoleOwner {
		h.fail(w, r, fmt.Errorf("owner cannot be removed: %w", session.ErrAccessDenied))
		return
	}

	if err := h.deps.Boards.RemoveMember(ctx, boardID, target); err != nil {
		h.fail(w, r, err)
		return
	}

	// событие получают все, включая удаляемого, затем его сессии покидают комнату
	h.publish(r, events.ToBoard(boardID, caller, events.MemberRemoved{BoardID: boardID, UserID: target}))
	evicted := 0
	if h.deps.Sessions != nil {
		evicted = h.deps.Sessions.EvictFromBoard(target, boardID)
	}

	h.logger.InfoContext(ctx, "member removed",
		slog.String("board_id", boardID),
		slog.String("user_id", target),
		slog.Int("sessions_evicted", evicted))
	w.WriteHeader(http.StatusNoContent)
}
