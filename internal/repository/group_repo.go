package repository

import (
	"context"

	"github.com/cwrk-planet/messenger/internal/domain"
)

type GroupRepository interface {
	// Create атомарно создаёт группу, добавляет создателя и участников
	Create(ctx context.Context, g *domain.Group, members []domain.UserID) error
	GetByName(ctx context.Context, name string) (*domain.Group, error)
	IsMember(ctx context.Context, groupID int64, userID domain.UserID) (bool, error)
	Members(ctx context.Context, groupID int64) ([]domain.UserSummary, error)
	ListForUser(ctx context.Context, userID domain.UserID) ([]domain.ChatListItem, error)
	// SetPinned: один слот, nil снимает закреп
	SetPinned(ctx context.Context, groupID int64, msgID *domain.MessageID) error
	Delete(ctx context.Context, groupID int64) error
}
