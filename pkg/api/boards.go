package api

import (
	"time"

	"github.com/iudanet/boardsync/internal/models"
)

// CreateBoardRequest создание доски
type CreateBoardRequest struct {
	Title string `json:"title"`
}

// CreateListRequest создание списка. Index позиция вставки среди списков доски,
// nil означает в конец.
type CreateListRequest struct {
	Index *int   `json:"index,omitempty"`
	Title string `json:"title"`
}

// UpdateListRequest переименование списка
type UpdateListRequest struct {
	Title string `json:"title"`
}

// ReorderRequest полный порядок сущностей
type ReorderRequest struct {
	IDs []string `json:"ids"`
}

// CreateCardRequest создание карточки
type CreateCardRequest struct {
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Index       *int       `json:"index,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
}

// UpdateCardRequest изменение карточки. Пустые поля не меняются.
type UpdateCardRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// MoveCardRequest перемещение карточки в список ToListID на место Index
type MoveCardRequest struct {
	ToListID string `json:"toListId"`
	Index    int    `json:"index"`
}

// AddCommentRequest новый комментарий
type AddCommentRequest struct {
	Text string `json:"text"`
}

// AddMemberRequest добавление участника на доску
type AddMemberRequest struct {
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
}

// UpdateMemberRequest изменение роли участника
type UpdateMemberRequest struct {
	Role string `json:"role"`
}

// BoardResponse доска со списками и карточками в порядке отображения
type BoardResponse struct {
	Board *models.Board  `json:"board"`
	Lists []ListResponse `json:"lists"`
}

// ListResponse список с карточками
type ListResponse struct {
	List  *models.List   `json:"list"`
	Cards []*models.Card `json:"cards"`
}
