package repository

import (
	"context"

	"github.com/cwrk-planet/messenger/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) (domain.UserID, error)
	GetByID(ctx context.Context, id domain.UserID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	// ListByUsernames молча пропускает несуществующие имена
	ListByUsernames(ctx context.Context, usernames []string) ([]domain.UserSummary, error)
	UpdateUsername(ctx context.Context, id domain.UserID, username string) error
	UpdatePasswordHash(ctx context.Context, id domain.UserID, hash string) error
	UpdateProfile(ctx context.Context, id domain.UserID, patch domain.ProfilePatch) error
	// Search: LIKE по имени, без самого ищущего
	Search(ctx context.Context, query string, exclude domain.UserID, limit int) ([]domain.UserSummary, error)
}
