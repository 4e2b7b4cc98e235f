package storage

import (
	"context"
	"time"
)

// AuthStorage хранит сессию клиента между запусками
type AuthStorage interface {
	// SaveAuth заменяет сохраненную сессию
	SaveAuth(ctx context.Context, auth *AuthData) error

	// GetAuth возвращает сессию или ErrAuthNotFound
	GetAuth(ctx context.Context) (*AuthData, error)

	// DeleteAuth удаляет сессию (logout)
	DeleteAuth(ctx context.Context) error
}

// AuthData сохраненная сессия клиента
type AuthData struct {
	Username    string `json:"username"`
	UserID      string `json:"user_id"`
	ServerURL   string `json:"server_url"`
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
}

// Expired сообщает, истек ли токен к моменту now.
func (a *AuthData) Expired(now time.Time) bool {
	return !now.Before(time.Unix(a.ExpiresAt, 0))
}
