package storage

import (
	"context"

	"github.com/iudanet/boardsync/internal/models"
	"github.com/iudanet/boardsync/internal/ordering"
)

// BoardStorage доски и участники
type BoardStorage interface {
	// CreateBoard создает доску и делает владельца ее участником с ролью owner
	CreateBoard(ctx context.Context, board *models.Board) error

	// GetBoard возвращает ErrBoardNotFound если доски нет
	GetBoard(ctx context.Context, boardID string) (*models.Board, error)

	// ListUserBoards доски, в которых пользователь является участником
	ListUserBoards(ctx context.Context, userID string) ([]*models.Board, error)

	// GetMemberRole возвращает роль участника или ErrMemberNotFound
	GetMemberRole(ctx context.Context, boardID, userID string) (string, error)

	ListMembers(ctx context.Context, boardID string) ([]*models.Member, error)

	// AddMember возвращает ErrMemberAlreadyExists при повторном добавлении
	AddMember(ctx context.Context, boardID, userID, role string) (*models.Member, error)

	UpdateMemberRole(ctx context.Context, boardID, userID, role string) (*models.Member, error)

	RemoveMember(ctx context.Context, boardID, userID string) error
}

// ListStorage колонки доски
type ListStorage interface {
	CreateList(ctx context.Context, list *models.List) error

	// GetList возвращает ErrListNotFound если списка нет
	GetList(ctx context.Context, listID string) (*models.List, error)

	UpdateList(ctx context.Context, list *models.List) error

	// DeleteList удаляет список вместе с карточками
	DeleteList(ctx context.Context, listID string) error

	// ListLists списки доски в порядке (position, id)
	ListLists(ctx context.Context, boardID string) ([]*models.List, error)

	// UpdateListPositions атомарно переписывает позиции
	UpdateListPositions(ctx context.Context, boardID string, placements []ordering.Placement) error
}

// CardStorage карточки и комментарии
type CardStorage interface {
	CreateCard(ctx context.Context, card *models.Card) error

	// GetCard возвращает ErrCardNotFound если карточки нет
	GetCard(ctx context.Context, cardID string) (*models.Card, error)

	UpdateCard(ctx context.Context, card *models.Card) error

	DeleteCard(ctx context.Context, cardID string) error

	// ListCards карточки списка в порядке (position, id)
	ListCards(ctx context.Context, listID string) ([]*models.Card, error)

	// MoveCard переносит карточку в список toListID, переписывая позиции
	// соседей (placements) и самой карточки в одной транзакции
	MoveCard(ctx context.Context, cardID, toListID string, position float64, placements []ordering.Placement) error

	// UpdateCardPositions атомарно переписывает позиции карточек списка
	UpdateCardPositions(ctx context.Context, listID string, placements []ordering.Placement) error

	AddComment(ctx context.Context, comment *models.Comment) error

	// ListComments комментарии карточки по времени создания
	ListComments(ctx context.Context, cardID string) ([]*models.Comment, error)
}

// NotificationStorage персональные уведомления
type NotificationStorage interface {
	SaveNotification(ctx context.Context, n *models.Notification) error

	// ListNotifications последние уведомления пользователя, новые первыми
	ListNotifications(ctx context.Context, userID string, limit int) ([]*models.Notification, error)

	// MarkRead возвращает ErrNotificationNotFound если уведомления нет
	MarkRead(ctx context.Context, userID, notificationID string) error
}
