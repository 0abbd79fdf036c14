package postgres

import (
	"github.com/cwrk-planet/messenger/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	_ repository.UserRepository    = (*UserRepo)(nil)
	_ repository.ChatRepository    = (*ChatRepo)(nil)
	_ repository.GroupRepository   = (*GroupRepo)(nil)
	_ repository.ChannelRepository = (*ChannelRepo)(nil)
	_ repository.MessageRepository = (*MessageRepo)(nil)
	_ repository.FollowRepository  = (*FollowRepo)(nil)
	_ repository.PostRepository    = (*PostRepo)(nil)
)

// Repos: весь слой хранения поверх одного пула.
type Repos struct {
	Users    *UserRepo
	Chats    *ChatRepo
	Groups   *GroupRepo
	Channels *ChannelRepo
	Messages *MessageRepo
	Follows  *FollowRepo
	Posts    *PostRepo
}

func NewRepos(pool *pgxpool.Pool) *Repos {
	return &Repos{
		Users:    NewUserRepoFromPool(pool),
		Chats:    NewChatRepoFromPool(pool),
		Groups:   NewGroupRepoFromPool(pool),
		Channels: NewChannelRepoFromPool(pool),
		Messages: NewMessageRepoFromPool(pool),
		Follows:  NewFollowRepoFromPool(pool),
		Posts:    NewPostRepoFromPool(pool),
	}
}
