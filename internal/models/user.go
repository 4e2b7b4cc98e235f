package models

import "time"

// User представляет пользователя в системе
type User struct {
	CreatedAt    time.Time `json:"created_at"` // время создания
	UpdatedAt    time.Time `json:"updated_at"` // время последнего обновления
	ID           string    `json:"id"`         // UUID пользователя
	Username     string    `json:"username"`   // уникальный username
	PasswordHash string    `json:"-"`          // bcrypt хеш пароля
	AvatarURL    string    `json:"avatar_url"` // ссылка на аватар, может быть пустой
}

// Profile возвращает публичный профиль пользователя.
func (u *User) Profile() UserProfile {
	return UserProfile{
		UserID:    u.ID,
		Username:  u.Username,
		AvatarURL: u.AvatarURL,
	}
}

// UserProfile публичные данные пользователя, которые видят участники доски
type UserProfile struct {
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}
