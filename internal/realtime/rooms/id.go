package rooms

import (
	"errors"
	"fmt"
	"strings"
)

// Kind тип комнаты
type Kind uint8

const (
	// KindUser персональная комната пользователя, в нее входят все его сессии.
	KindUser Kind = iota + 1
	// KindBoard комната доски.
	KindBoard
)

// String возвращает префикс комнаты.
func (k Kind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindBoard:
		return "board"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ErrInvalidRoomID строка не является именем комнаты.
var ErrInvalidRoomID = errors.New("invalid room id")

// ID идентификатор комнаты: user:{userId} или board:{boardId}.
type ID struct {
	Key  string
	Kind Kind
}

// User персональная комната пользователя.
func User(userID string) ID { return ID{Kind: KindUser, Key: userID} }

// Board комната доски.
func Board(boardID string) ID { return ID{Kind: KindBoard, Key: boardID} }

func (id ID) String() string {
	return id.Kind.String() + ":" + id.Key
}

// IsZero сообщает, что идентификатор не задан.
func (id ID) IsZero() bool {
	return id.Kind == 0 && id.Key == ""
}

// Parse разбирает строку вида "board:42".
func Parse(s string) (ID, error) {
	prefix, key, ok := strings.Cut(s, ":")
	if !ok || key == "" {
		return ID{}, fmt.Errorf("%w: %q", ErrInvalidRoomID, s)
	}

	switch prefix {
	case "user":
		return User(key), nil
	case "board":
		return Board(key), nil
	default:
		return ID{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidRoomID, prefix)
	}
}

// MarshalText позволяет использовать ID в JSON как строку.
func (id ID) MarshalText() ([]byte, error) {
	if id.IsZero() {
		return []byte{}, nil
	}
	return []byte(id.String()), nil
}

// UnmarshalText разбирает ID из JSON.
func (id *ID) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*id = ID{}
		return nil
	}
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
