// Package access проверяет членство пользователя на доске и его роль.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/boardsync/internal/models"
	"github.com/iudanet/boardsync/internal/realtime/session"
	"github.com/iudanet/boardsync/internal/server/storage"
)

// MembershipReader источник данных о членстве
type MembershipReader interface {
	GetBoard(ctx context.Context, boardID string) (*models.Board, error)
	GetMemberRole(ctx context.Context, boardID, userID string) (string, error)
}

var roleRank = map[string]int{
	models.RoleMember: 1,
	models.RoleAdmin:  2,
	models.RoleOwner:  3,
}

// ValidRole сообщает, что роль известна.
func ValidRole(role string) bool {
	_, ok := roleRank[role]
	return ok
}

// Checker проверяет доступ к доскам
type Checker struct {
	boards MembershipReader
}

// New создает Checker.
func New(boards MembershipReader) *Checker {
	return &Checker{boards: boards}
}

// AuthorizeBoardAccess сообщает, является ли пользователь участником доски.
// Отсутствующая доска дает session.ErrNotFound.
func (c *Checker) AuthorizeBoardAccess(ctx context.Context, userID, boardID string) (bool, error) {
	_, err := c.Role(ctx, userID, boardID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, session.ErrAccessDenied):
		return false, nil
	default:
		return false, err
	}
}

// Role возвращает роль участника.
// Ошибки: session.ErrNotFound для неизвестной доски, session.ErrAccessDenied для не участника.
func (c *Checker) Role(ctx context.Context, userID, boardID string) (string, error) {
	role, err := c.boards.GetMemberRole(ctx, boardID, userID)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, storage.ErrMemberNotFound) {
		return "", fmt.Errorf("get member role: %w", err)
	}

	// Различаем "нет доски" и "не участник"
	if _, err := c.boards.GetBoard(ctx, boardID); err != nil {
		if errors.Is(err, storage.ErrBoardNotFound) {
			return "", fmt.Errorf("board %s: %w", boardID, session.ErrNotFound)
		}
		return "", fmt.Errorf("get board: %w", err)
	}
	return "", fmt.Errorf("board %s: %w", boardID, session.ErrAccessDenied)
}

// Require проверяет, что роль пользователя не ниже minRole.
func (c *Checker) Require(ctx context.Context, userID, boardID, minRole string) (string, error) {
	role, err := c.Role(ctx, userID, boardID)
	if err != nil {
		return "", err
	}
	if roleRank[role] < roleRank[minRole] {
		return "", fmt.Errorf("role %s on board %s: %w", role, boardID, session.ErrAccessDenied)
	}
	return role, nil
}
