package repository

import (
	"context"
	"time"

	"github.com/cwrk-planet/messenger/internal/domain"
)

type ChannelRepository interface {
	// Create атомарно: канал + роли по умолчанию + создатель с ролью Admin
	Create(ctx context.Context, ch *domain.Channel) error
	GetByName(ctx context.Context, name string) (*domain.Channel, error)
	GetByID(ctx context.Context, id int64) (*domain.Channel, error)
	Delete(ctx context.Context, id int64) error

	Member(ctx context.Context, channelID int64, userID domain.UserID) (*domain.ChannelMember, error)
	Members(ctx context.Context, channelID int64) ([]domain.ChannelMember, error)
	// SetRole и RemoveMember не дают убрать последнего Admin-а
	SetRole(ctx context.Context, channelID int64, userID domain.UserID, role domain.Role) error
	RemoveMember(ctx context.Context, channelID int64, userID domain.UserID) error
	ListForUser(ctx context.Context, userID domain.UserID) ([]domain.ChatListItem, error)

	CreateInvite(ctx context.Context, inv *domain.Invite) error
	ListInvites(ctx context.Context, channelID int64) ([]domain.Invite, error)
	DeleteInvite(ctx context.Context, channelID, inviteID int64) error
	// RedeemInvite атомарно проверяет и расходует инвайт, добавляя участника с ролью Member
	RedeemInvite(ctx context.Context, code string, userID domain.UserID, now time.Time) (*domain.Channel, error)
}
