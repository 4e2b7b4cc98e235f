// Package events описывает события, которые сервер рассылает клиентам.
//
// Набор payload закрыт: каждый тип события имеет ровно одну структуру,
// реализующую Payload, и реализовать интерфейс вне пакета нельзя.
package events

import (
	"github.com/iudanet/boardsync/internal/models"
	"github.com/iudanet/boardsync/internal/ordering"
	"github.com/iudanet/boardsync/internal/realtime/presence"
)

// Type тег события
type Type string

// Server→client события
const (
	TypeAuthenticated Type = "auth:ok"
	TypeBoardJoined   Type = "board:joined"
	TypeUserJoined    Type = "board:user-joined"
	TypeUserLeft      Type = "board:user-left"

	TypeListCreated   Type = "list:created"
	TypeListUpdated   Type = "list:updated"
	TypeListDeleted   Type = "list:deleted"
	TypeListReordered Type = "list:reordered"

	TypeCardCreated      Type = "card:created"
	TypeCardUpdated      Type = "card:updated"
	TypeCardDeleted      Type = "card:deleted"
	TypeCardMoved        Type = "card:moved"
	TypeCardCommentAdded Type = "card:comment-added"

	TypeMemberAdded   Type = "member:added"
	TypeMemberUpdated Type = "member:updated"
	TypeMemberRemoved Type = "member:removed"

	TypeCursorUpdated   Type = "cursor:updated"
	TypeNotificationNew Type = "notification:new"
	TypeError           Type = "error"
	TypePong            Type = "pong"
)

// Payload данные события конкретного типа.
type Payload interface {
	EventType() Type
	sealed()
}

// Authenticated подтверждение аутентификации сессии
type Authenticated struct {
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
	Username  string `json:"username"`
}

// BoardJoined отправляется вошедшей сессии со снимком присутствия
type BoardJoined struct {
	BoardID     string           `json:"boardId"`
	UserID      string           `json:"userId"`
	Username    string           `json:"username"`
	ActiveUsers []presence.Entry `json:"activeUsers"`
}

// UserJoined первая сессия пользователя вошла на доску
type UserJoined struct {
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// UserLeft последняя сессия пользователя покинула доску
type UserLeft struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// ListCreated новый список
type ListCreated struct {
	List models.List `json:"list"`
	// Positions заполняется, если вставка потребовала перенумерации соседей
	Positions []ordering.Placement `json:"positions,omitempty"`
}

// ListUpdated список изменен
type ListUpdated struct {
	List models.List `json:"list"`
}

// ListDeleted список удален
type ListDeleted struct {
	BoardID string `json:"boardId"`
	ListID  string `json:"listId"`
}

// ListsReordered полный новый порядок списков доски
type ListsReordered struct {
	BoardID   string               `json:"boardId"`
	Positions []ordering.Placement `json:"positions"`
}

// CardCreated новая карточка
type CardCreated struct {
	Card      models.Card          `json:"card"`
	Positions []ordering.Placement `json:"positions,omitempty"`
}

// CardUpdated карточка изменена
type CardUpdated struct {
	Card models.Card `json:"card"`
}

// CardDeleted карточка удалена
type CardDeleted struct {
	BoardID string `json:"boardId"`
	ListID  string `json:"listId"`
	CardID  string `json:"cardId"`
}

// CardMoved перемещение одной карточки или полная перестановка карточек списка.
// При перестановке CardID пуст, а Positions содержит весь список.
type CardMoved struct {
	CardID     string               `json:"cardId,omitempty"`
	FromListID string               `json:"fromListId,omitempty"`
	ToListID   string               `json:"toListId"`
	Positions  []ordering.Placement `json:"positions,omitempty"`
	Position   float64              `json:"position"`
}

// CommentAdded новый комментарий
type CommentAdded struct {
	Comment models.Comment `json:"comment"`
}

// MemberAdded участник добавлен на доску
type MemberAdded struct {
	Member models.Member `json:"member"`
}

// MemberUpdated роль участника изменена
type MemberUpdated struct {
	Member models.Member `json:"member"`
}

// MemberRemoved участник удален
type MemberRemoved struct {
	BoardID string `json:"boardId"`
	UserID  string `json:"userId"`
}

// CursorUpdated позиция курсора пользователя на доске
type CursorUpdated struct {
	BoardID   string  `json:"boardId"`
	UserID    string  `json:"userId"`
	Username  string  `json:"username"`
	AvatarURL string  `json:"avatarUrl,omitempty"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// NotificationNew новое персональное уведомление
type NotificationNew struct {
	Notification models.Notification `json:"notification"`
}

// Error ошибка обработки сообщения клиента
type Error struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Pong ответ на ping
type Pong struct{}

func (Authenticated) EventType() Type   { return TypeAuthenticated }
func (BoardJoined) EventType() Type     { return TypeBoardJoined }
func (UserJoined) EventType() Type      { return TypeUserJoined }
func (UserLeft) EventType() Type        { return TypeUserLeft }
func (ListCreated) EventType() Type     { return TypeListCreated }
func (ListUpdated) EventType() Type     { return TypeListUpdated }
func (ListDeleted) EventType() Type     { return TypeListDeleted }
func (ListsReordered) EventType() Type  { return TypeListReordered }
func (CardCreated) EventType() Type     { return TypeCardCreated }
func (CardUpdated) EventType() Type     { return TypeCardUpdated }
func (CardDeleted) EventType() Type     { return TypeCardDeleted }
func (CardMoved) EventType() Type       { return TypeCardMoved }
func (CommentAdded) EventType() Type    { return TypeCardCommentAdded }
func (MemberAdded) EventType() Type     { return TypeMemberAdded }
func (MemberUpdated) EventType() Type   { return TypeMemberUpdated }
func (MemberRemoved) EventType() Type   { return TypeMemberRemoved }
func (CursorUpdated) EventType() Type   { return TypeCursorUpdated }
func (NotificationNew) EventType() Type { return TypeNotificationNew }
func (Error) EventType() Type           { return TypeError }
func (Pong) EventType() Type            { return TypePong }

func (Authenticated) sealed()   {}
func (BoardJoined) sealed()     {}
func (UserJoined) sealed()      {}
func (UserLeft) sealed()        {}
func (ListCreated) sealed()     {}
func (ListUpdated) sealed()     {}
func (ListDeleted) sealed()     {}
func (ListsReordered) sealed()  {}
func (CardCreated) sealed()     {}
func (CardUpdated) sealed()     {}
func (CardDeleted) sealed()     {}
func (CardMoved) sealed()       {}
func (CommentAdded) sealed()    {}
func (MemberAdded) sealed()     {}
func (MemberUpdated) sealed()   {}
func (MemberRemoved) sealed()   {}
func (CursorUpdated) sealed()   {}
func (NotificationNew) sealed() {}
func (Error) sealed()           {}
func (Pong) sealed()            {}
