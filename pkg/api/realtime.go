package api

import "encoding/json"

// Типы сообщений client→server по websocket
const (
	MessageAuth       = "auth"
	MessageBoardJoin  = "board:join"
	MessageBoardLeave = "board:leave"
	MessageCursorMove = "cursor:move"
	MessagePing       = "ping"
)

// ClientMessage входящее сообщение клиента
type ClientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// AuthData данные сообщения auth
type AuthData struct {
	Token string `json:"token"`
}

// BoardData данные сообщений board:join и board:leave
type BoardData struct {
	BoardID string `json:"boardId"`
}

// CursorMoveData данные сообщения cursor:move
type CursorMoveData struct {
	BoardID string  `json:"boardId"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}
