package repository

import (
	"context"

	"github.com/cwrk-planet/messenger/internal/domain"
)

// ChatRepository: личные чаты (пара пользователей).
type ChatRepository interface {
	// GetOrCreate идемпотентен и не зависит от порядка участников
	GetOrCreate(ctx context.Context, a, b domain.UserID) (*domain.Chat, error)
	Find(ctx context.Context, a, b domain.UserID) (*domain.Chat, error)
	GetByID(ctx context.Context, id int64) (*domain.Chat, error)
	// Delete удаляет чат вместе с сообщениями
	Delete(ctx context.Context, id int64) error
	ListForUser(ctx context.Context, userID domain.UserID) ([]domain.ChatListItem, error)
}
