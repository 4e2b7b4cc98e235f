// Package ws связывает websocket-соединения gorilla/websocket с сессиями.
//
// На каждое соединение две горутины: чтение обрабатывает сообщения
// синхронно в порядке поступления, запись вычитывает очередь сессии.
package ws

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iudanet/boardsync/internal/realtime/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

type conn struct {
	logger  *slog.Logger
	ws      *websocket.Conn
	session *session.Session
}

// readPump читает сообщения до ошибки и закрывает сессию.
func (c *conn) readPump(ctx context.Context) {
	defer func() {
		c.session.Close()
		c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read error", "session_id", c.session.ID(), "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		// Ошибка уже отправлена клиенту событием error
		_ = c.session.Handle(ctx, data)
	}
}

// writePump отправляет события из очереди и пинги.
// Закрытая очередь означает закрытую сессию.
func (c *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	outbox := c.session.Outbox()
	for {
		select {
		case frame, ok := <-outbox:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Debug("websocket write failed", "session_id", c.session.ID(), "error", err)
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
