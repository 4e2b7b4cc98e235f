package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iudanet/boardsync/internal/realtime/events"
	"github.com/iudanet/boardsync/pkg/api"
)

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing data", ErrBadRequest)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: invalid data", ErrBadRequest)
	}
	return nil
}

func handleAuth(ctx context.Context, s *Session, data json.RawMessage) error {
	var d api.AuthData
	if err := decode(data, &d); err != nil {
		return err
	}
	return s.authenticate(ctx, d.Token)
}

func handlePing(_ context.Context, s *Session, _ json.RawMessage) error {
	s.m.dispatcher.SendTo(s.id, events.Envelope{Payload: events.Pong{}})
	return nil
}

func handleBoardJoin(ctx context.Context, s *Session, data json.RawMessage) error {
	var d api.BoardData
	if err := decode(data, &d); err != nil {
		return err
	}
	return s.JoinBoard(ctx, d.BoardID)
}

func handleBoardLeave(_ context.Context, s *Session, data json.RawMessage) error {
	var d api.BoardData
	if err := decode(data, &d); err != nil {
		return err
	}
	if d.BoardID == "" {
		return fmt.Errorf("%w: boardId is required", ErrBadRequest)
	}
	return s.LeaveBoard(d.BoardID)
}

func handleCursorMove(_ context.Context, s *Session, data json.RawMessage) error {
	var d api.CursorMoveData
	if err := decode(data, &d); err != nil {
		return err
	}
	return s.MoveCursor(d.BoardID, d.X, d.Y)
}
