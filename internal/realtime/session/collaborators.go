package session

import (
	"context"

	"github.com/iudanet/boardsync/internal/models"
)

//go:generate moq -out collaborators_mock.go . IdentityVerifier BoardAuthorizer ProfileLookup

// IdentityVerifier проверяет токен и возвращает id пользователя.
type IdentityVerifier interface {
	VerifyIdentity(ctx context.Context, token string) (string, error)
}

// BoardAuthorizer проверяет доступ пользователя к доске.
// Для несуществующей доски возвращает ошибку, оборачивающую ErrNotFound.
type BoardAuthorizer interface {
	AuthorizeBoardAccess(ctx context.Context, userID, boardID string) (bool, error)
}

// ProfileLookup возвращает профиль пользователя.
type ProfileLookup interface {
	LookupUserProfile(ctx context.Context, userID string) (models.UserProfile, error)
}
