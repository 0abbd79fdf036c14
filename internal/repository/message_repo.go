package repository

import (
	"context"

	"github.com/cwrk-planet/messenger/internal/domain"
)

type MessageRepository interface {
	Create(ctx context.Context, m *domain.Message) error
	Get(ctx context.Context, id domain.MessageID) (*domain.Message, error)
	// AdvanceStatus двигает статус только вперёд; false: если двигать было некуда
	AdvanceStatus(ctx context.Context, id domain.MessageID, to domain.Status) (bool, error)
	// MarkRead помечает прочитанными все чужие непрочитанные сообщения беседы
	MarkRead(ctx context.Context, conv domain.Conversation, reader domain.UserID) ([]domain.MessageID, error)
	UpdateBody(ctx context.Context, id domain.MessageID, body string) error
	Delete(ctx context.Context, id domain.MessageID) error
	History(ctx context.Context, conv domain.Conversation, page domain.Page) ([]domain.Message, error)
	Search(ctx context.Context, conv domain.Conversation, query string, limit int) ([]domain.Message, error)
}
