package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/boardsync/internal/realtime/rooms"
)

// ErrNoPayload конверт без данных
var ErrNoPayload = errors.New("event has no payload")

// Envelope событие, адресованное комнате.
// Передается по значению: после передачи диспетчеру не изменяется.
type Envelope struct {
	Timestamp    time.Time
	Payload      Payload
	Room         rooms.ID
	OriginUserID string
	// ExceptSession сессия, которой событие не доставляется (обычно инициатор)
	ExceptSession string
	// Seq номер Лампорта, назначается диспетчером при доставке
	Seq uint64
}

// New создает конверт для комнаты.
func New(room rooms.ID, originUserID string, payload Payload) Envelope {
	return Envelope{
		Room:         room,
		OriginUserID: originUserID,
		Payload:      payload,
		Timestamp:    time.Now().UTC(),
	}
}

// ToBoard событие для комнаты доски.
func ToBoard(boardID, originUserID string, payload Payload) Envelope {
	return New(rooms.Board(boardID), originUserID, payload)
}

// ToUser событие для персональной комнаты пользователя.
func ToUser(userID, originUserID string, payload Payload) Envelope {
	return New(rooms.User(userID), originUserID, payload)
}

// Except возвращает копию конверта, которая не доставляется сессии sessionID.
func (e Envelope) Except(sessionID string) Envelope {
	e.ExceptSession = sessionID
	return e
}

// Type тег события.
func (e Envelope) Type() Type {
	if e.Payload == nil {
		return ""
	}
	return e.Payload.EventType()
}

// Frame формат события на проводе.
type Frame struct {
	Timestamp    time.Time       `json:"timestamp"`
	Type         Type            `json:"type"`
	Room         string          `json:"room,omitempty"`
	OriginUserID string          `json:"originUserId,omitempty"`
	Data         json.RawMessage `json:"data"`
	Seq          uint64          `json:"seq,omitempty"`
}

// Encode сериализует конверт один раз для всех получателей.
func Encode(e Envelope) ([]byte, error) {
	if e.Payload == nil {
		return nil, ErrNoPayload
	}

	data, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", e.Payload.EventType(), err)
	}

	frame := Frame{
		Type:         e.Payload.EventType(),
		OriginUserID: e.OriginUserID,
		Timestamp:    e.Timestamp,
		Seq:          e.Seq,
		Data:         data,
	}
	if !e.Room.IsZero() {
		frame.Room = e.Room.String()
	}

	out, err := json.Marshal(frame)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal frame: %w", err)
	}
	return out, nil
}

// DecodeFrame разбирает событие без разбора данных.
func DecodeFrame(b []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(b, &f); err != nil {
		return Frame{}, fmt.Errorf("failed to decode frame: %w", err)
	}
	return f, nil
}
