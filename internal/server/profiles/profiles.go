// Package profiles отдает публичные профили пользователей с коротким кэшем.
// Одновременные запросы одного профиля (несколько вкладок) объединяются.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/iudanet/boardsync/internal/models"
	"github.com/iudanet/boardsync/internal/realtime/session"
	"github.com/iudanet/boardsync/internal/server/storage"
)

// DefaultTTL время жизни записи кэша
const DefaultTTL = 30 * time.Second

// UserGetter источник пользователей
type UserGetter interface {
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
}

type entry struct {
	expires time.Time
	profile models.UserProfile
}

// Cache кэш профилей
type Cache struct {
	users   UserGetter
	now     func() time.Time
	entries map[string]entry
	group   singleflight.Group
	ttl     time.Duration
	mu      sync.Mutex
}

// New создает кэш профилей. ttl <= 0 заменяется на DefaultTTL.
func New(users UserGetter, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		users:   users,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

// LookupUserProfile возвращает профиль пользователя.
// Неизвестный пользователь дает session.ErrNotFound.
func (c *Cache) LookupUserProfile(ctx context.Context, userID string) (models.UserProfile, error) {
	if p, ok := c.cached(userID); ok {
		return p, nil
	}

	v, err, _ := c.group.Do(userID, func() (any, error) {
		user, err := c.users.GetUserByID(ctx, userID)
		if err != nil {
			if errors.Is(err, storage.ErrUserNotFound) {
				return nil, fmt.Errorf("user %s: %w", userID, session.ErrNotFound)
			}
			return nil, fmt.Errorf("get user: %w", err)
		}

		p := user.Profile()
		c.mu.Lock()
		c.entries[userID] = entry{profile: p, expires: c.now().Add(c.ttl)}
		c.mu.Unlock()
		return p, nil
	})
	if err != nil {
		return models.UserProfile{}, err
	}

	return v.(models.UserProfile), nil
}

// Invalidate удаляет профиль из кэша (после изменения пользователя).
func (c *Cache) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, userID)
}

func (c *Cache) cached(userID string) (models.UserProfile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[userID]
	if !ok {
		return models.UserProfile{}, false
	}
	if c.now().After(e.expires) {
		delete(c.entries, userID)
		return models.UserProfile{}, false
	}
	return e.profile, true
}
