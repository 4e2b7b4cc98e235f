package models

import "time"

// Роли участников доски
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Board доска
type Board struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	OwnerID   string    `json:"ownerId"`
}

// List колонка доски. Position задает порядок внутри доски
type List struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	ID        string    `json:"id"`
	BoardID   string    `json:"boardId"`
	Title     string    `json:"title"`
	Position  float64   `json:"position"`
}

// Card карточка. Position задает порядок внутри списка
type Card struct {
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	ID          string     `json:"id"`
	ListID      string     `json:"listId"`
	BoardID     string     `json:"boardId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Position    float64    `json:"position"`
}

// Comment комментарий к карточке
type Comment struct {
	CreatedAt time.Time   `json:"createdAt"`
	ID        string      `json:"id"`
	CardID    string      `json:"cardId"`
	BoardID   string      `json:"boardId"`
	Text      string      `json:"text"`
	Author    UserProfile `json:"author"`
}

// Member участник доски
type Member struct {
	AddedAt time.Time   `json:"addedAt"`
	BoardID string      `json:"boardId"`
	Role    string      `json:"role"`
	User    UserProfile `json:"user"`
}

// Notification персональное уведомление пользователя
type Notification struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`     // UUIDv7, упорядочен по времени создания
	UserID    string    `json:"userId"` // получатель
	Kind      string    `json:"kind"`   // например "member:added"
	BoardID   string    `json:"boardId,omitempty"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
}
