// Package validation проверяет пользовательский ввод REST API.
// Все ошибки оборачивают ErrInvalid, чтобы обработчики могли вернуть 400.
package validation

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ErrInvalid некорректный ввод
var ErrInvalid = errors.New("invalid input")

// UsernamePattern определяет допустимый формат username
// Только латинские буквы (a-z, A-Z), цифры (0-9), нижнее подчеркивание (_)
var UsernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

const (
	// MinUsernameLen минимальная длина username
	MinUsernameLen = 3
	// MaxUsernameLen максимальная длина username
	MaxUsernameLen = 32
	// MinPasswordLen минимальная длина пароля
	MinPasswordLen = 8
	// MaxPasswordLen bcrypt не принимает пароли длиннее 72 байт
	MaxPasswordLen = 72
	// MaxTitleLen максимальная длина названия доски, списка или карточки (в символах)
	MaxTitleLen = 200
	// MaxTextLen максимальная длина описания карточки и комментария
	MaxTextLen = 10000
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// ValidateUsername проверяет, что username соответствует требованиям
func ValidateUsername(username string) error {
	switch {
	case username == "":
		return invalid("username cannot be empty")
	case len(username) < MinUsernameLen:
		return invalid("username must be at least %d characters long", MinUsernameLen)
	case len(username) > MaxUsernameLen:
		return invalid("username must not exceed %d characters", MaxUsernameLen)
	case !UsernamePattern.MatchString(username):
		return invalid("username can only contain letters (a-z, A-Z), numbers (0-9), and underscores (_)")
	}
	return nil
}

// ValidatePassword проверяет длину пароля в байтах
func ValidatePassword(password string) error {
	switch {
	case password == "":
		return invalid("password cannot be empty")
	case len(password) < MinPasswordLen:
		return invalid("password must be at least %d characters long", MinPasswordLen)
	case len(password) > MaxPasswordLen:
		return invalid("password must not exceed %d bytes", MaxPasswordLen)
	}
	return nil
}

// ValidateAvatarURL пустая строка допустима, иначе абсолютный http(s) URL
func ValidateAvatarURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return invalid("avatar_url must be an absolute http(s) URL")
	}
	return nil
}

// ValidateTitle название не может быть пустым или состоять из пробелов
func ValidateTitle(field, title string) error {
	if strings.TrimSpace(title) == "" {
		return invalid("%s cannot be empty", field)
	}
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return invalid("%s must not exceed %d characters", field, MaxTitleLen)
	}
	return nil
}

// ValidateText проверяет описание или текст комментария.
// required запрещает пустой текст.
func ValidateText(field, text string, required bool) error {
	if required && strings.TrimSpace(text) == "" {
		return invalid("%s cannot be empty", field)
	}
	if utf8.RuneCountInString(text) > MaxTextLen {
		return invalid("%s must not exceed %d characters", field, MaxTextLen)
	}
	return nil
}

// ValidateIDs проверяет порядок сущностей для перестановки
func ValidateIDs(ids []string) error {
	if len(ids) == 0 {
		return invalid("ids cannot be empty")
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			return invalid("ids cannot contain empty values")
		}
		if _, dup := seen[id]; dup {
			return invalid("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
