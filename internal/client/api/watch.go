package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iudanet/boardsync/internal/realtime/events"
	"github.com/iudanet/boardsync/pkg/api"
)

// pingInterval интервал ping сообщений клиента
const pingInterval = 25 * time.Second

// ErrStop возвращается FrameHandler, чтобы завершить Watch без ошибки
var ErrStop = errors.New("stop watching")

// FrameHandler получает события доски. Ошибка останавливает Watch.
type FrameHandler func(events.Frame) error

// Watch подключается к websocket, входит на доски boardIDs и передает события fn
// до отмены ctx или разрыва соединения. Отмена ctx не считается ошибкой.
func (c *Client) Watch(ctx context.Context, boardIDs []string, fn FrameHandler) error {
	wsURL, err := c.websocketURL()
	if err != nil {
		return err
	}

	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.Close()

	// Закрываем соединение при отмене, чтобы разблокировать ReadMessage
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for _, boardID := range boardIDs {
		msg := map[string]any{"type": api.MessageBoardJoin, "data": api.BoardData{BoardID: boardID}}
		if err := conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("join %s: %w", boardID, err)
		}
	}

	errs := make(chan error, 1)
	go func() {
		errs <- readFrames(conn, fn)
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case err := <-errs:
			if ctx.Err() != nil || errors.Is(err, ErrStop) {
				return nil
			}
			return err
		case <-ticker.C:
			if err := conn.WriteJSON(map[string]string{"type": api.MessagePing}); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("ping: %w", err)
			}
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			<-errs
			return nil
		}
	}
}

func readFrames(conn *websocket.Conn, fn FrameHandler) error {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		frame, err := events.DecodeFrame(raw)
		if err != nil {
			return fmt.Errorf("decode frame: %w", err)
		}
		if frame.Type == events.TypePong {
			continue
		}
		if err := fn(frame); err != nil {
			return err
		}
	}
}

func (c *Client) websocketURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", errors.New("server url must use http or https")
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/v1/ws"
	return u.String(), nil
}
