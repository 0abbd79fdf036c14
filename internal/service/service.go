package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwrk-planet/messenger/internal/cache"
	"github.com/cwrk-planet/messenger/internal/domain"
	"github.com/cwrk-planet/messenger/internal/repository"
)

// Repos: набор хранилищ, которые нужны сервисам.
type Repos struct {
	Users    repository.UserRepository
	Chats    repository.ChatRepository
	Groups   repository.GroupRepository
	Channels repository.ChannelRepository
	Messages repository.MessageRepository
	Follows  repository.FollowRepository
	Posts    repository.PostRepository
}

// wrap оставляет доменные ошибки как есть, инфраструктурные логирует и оборачивает операцией.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if domain.Code(err) != "internal" {
		return err
	}
	slog.Error(op+" failed", slog.Any("err", err))
	return fmt.Errorf("%s: %w", op, err)
}

func orNow(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}

// cacheGet/cacheSet/cacheDrop: ошибки кеша не ломают запрос, только пишутся в лог.
func cacheGet(ctx context.Context, c cache.Cache, key string, dst any) bool {
	ok, err := c.GetJSON(ctx, key, dst)
	if err != nil {
		slog.Warn("cache.get failed", slog.String("key", key), slog.Any("err", err))
		return false
	}
	return ok
}

func cacheSet(ctx context.Context, c cache.Cache, key string, v any, ttl time.Duration) {
	if err := c.SetJSON(ctx, key, v, ttl); err != nil {
		slog.Warn("cache.set failed", slog.String("key", key), slog.Any("err", err))
	}
}

func cacheDrop(ctx context.Context, c cache.Cache, patterns ...string) {
	for _, p := range patterns {
		if err := c.DeletePattern(ctx, p); err != nil {
			slog.Warn("cache.drop failed", slog.String("pattern", p), slog.Any("err", err))
		}
	}
}

// Resolved: комната, разрешённая для конкретного пользователя.
type Resolved struct {
	domain.Target
	Chat    *domain.Chat
	Group   *domain.Group
	Channel *domain.Channel
	// Role заполнена только для канала
	Role domain.Role
}

// Exists: есть ли уже беседа в базе. Личный чат до первого сообщения не существует.
func (r *Resolved) Exists() bool { return r.Conversation.ID != 0 }

type resolver struct {
	repos Repos
	cache cache.Cache
}

// resolve проверяет, что actor вправе находиться в комнате, и находит беседу.
// Для личной комнаты create=true создаёт чат, если его ещё нет.
func (r *resolver) resolve(ctx context.Context, actor domain.UserSummary, room domain.Room, create bool) (*Resolved, error) {
	switch room.Kind {
	case domain.RoomDirect:
		return r.resolveDirect(ctx, actor, room, create)
	case domain.RoomGroup:
		return r.resolveGroup(ctx, actor, room)
	case domain.RoomChannel:
		return r.resolveChannel(ctx, actor, room)
	default:
		return nil, domain.ErrInvalidRoom
	}
}

func (r *resolver) resolveDirect(ctx context.Context, actor domain.UserSummary, room domain.Room, create bool) (*Resolved, error) {
	peerName, ok := room.Peer(actor.Username)
	if !ok {
		return nil, domain.ErrNotParticipant
	}
	peer, err := r.repos.Users.GetByUsername(ctx, peerName)
	if err != nil {
		return nil, wrap("users.GetByUsername", err)
	}

	var chat *domain.Chat
	if create {
		chat, err = r.repos.Chats.GetOrCreate(ctx, actor.ID, peer.ID)
	} else {
		chat, err = r.repos.Chats.Find(ctx, actor.ID, peer.ID)
		if errors.Is(err, domain.ErrChatNotFound) {
			chat, err = nil, nil
		}
	}
	if err != nil {
		return nil, wrap("chats.resolve", err)
	}

	res := &Resolved{
		Target: domain.Target{
			Room:         room,
			Conversation: domain.Conversation{Kind: domain.RoomDirect},
			Members:      []string{room.Peers[0], room.Peers[1]},
		},
		Chat: chat,
	}
	if chat != nil {
		res.Conversation.ID = chat.ID
	}
	return res, nil
}

func (r *resolver) resolveGroup(ctx context.Context, actor domain.UserSummary, room domain.Room) (*Resolved, error) {
	g, err := r.repos.Groups.GetByName(ctx, room.Name)
	if err != nil {
		return nil, wrap("groups.GetByName", err)
	}
	members, err := r.repos.Groups.Members(ctx, g.ID)
	if err != nil {
		return nil, wrap("groups.Members", err)
	}

	res := &Resolved{
		Target: domain.Target{
			Room:         room,
			Conversation: domain.Conversation{Kind: domain.RoomGroup, ID: g.ID},
			Members:      usernames(members),
		},
		Group: g,
	}
	if !res.HasMember(actor.Username) {
		return nil, domain.ErrNotMember
	}
	return res, nil
}

func (r *resolver) resolveChannel(ctx context.Context, actor domain.UserSummary, room domain.Room) (*Resolved, error) {
	ch, err := r.repos.Channels.GetByName(ctx, room.Name)
	if err != nil {
		return nil, wrap("channels.GetByName", err)
	}
	members, err := r.channelMembers(ctx, ch.ID)
	if err != nil {
		return nil, err
	}

	res := &Resolved{
		Target: domain.Target{
			Room:         room,
			Conversation: domain.Conversation{Kind: domain.RoomChannel, ID: ch.ID},
		},
		Channel: ch,
	}
	found := false
	for _, m := range members {
		res.Members = append(res.Members, m.Username)
		if m.UserID == actor.ID {
			res.Role = m.Role
			found = true
		}
	}
	if !found {
		return nil, domain.ErrNotMember
	}
	return res, nil
}

func (r *resolver) channelMembers(ctx context.Context, channelID int64) ([]domain.ChannelMember, error) {
	key := cache.ChannelMembersKey(channelID)

	var members []domain.ChannelMember
	if cacheGet(ctx, r.cache, key, &members) {
		return members, nil
	}
	members, err := r.repos.Channels.Members(ctx, channelID)
	if err != nil {
		return nil, wrap("channels.Members", err)
	}
	cacheSet(ctx, r.cache, key, members, cache.ChannelMembersTTL)
	return members, nil
}

func (r *resolver) dropChannelMembers(ctx context.Context, channelID int64) {
	if err := r.cache.Delete(ctx, cache.ChannelMembersKey(channelID)); err != nil {
		slog.Warn("cache.drop failed", slog.Int64("channel_id", channelID), slog.Any("err", err))
	}
}

func usernames(list []domain.UserSummary) []string {
	out := make([]string, 0, len(list))
	for _, u := range list {
		out = append(out, u.Username)
	}
	return out
}
