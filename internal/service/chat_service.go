package service

import (
	"context"
	"sort"
	"strings"

	"github.com/cwrk-planet/messenger/internal/cache"
	"github.com/cwrk-planet/messenger/internal/domain"
)

const maxRoomSearch = 50

// ChatService: чтение бесед: список чатов, история, поиск; удаление чатов и групп.
type ChatService struct {
	resolver
}

func NewChatService(repos Repos, c cache.Cache) *ChatService {
	if c == nil {
		c = cache.Nop{}
	}
	return &ChatService{resolver{repos: repos, cache: c}}
}

// Authorize: право подписаться на комнату (WS join). Личный чат может ещё не существовать.
func (s *ChatService) Authorize(ctx context.Context, actor domain.UserSummary, room domain.Room) (*Resolved, error) {
	return s.resolve(ctx, actor, room, false)
}

// ChatList сливает личные чаты, группы и каналы; свежие сверху, пустые в конце.
func (s *ChatService) ChatList(ctx context.Context, actor domain.UserSummary) ([]domain.ChatListItem, error) {
	direct, err := s.repos.Chats.ListForUser(ctx, actor.ID)
	if err != nil {
		return nil, wrap("chat.list.direct", err)
	}
	groups, err := s.repos.Groups.ListForUser(ctx, actor.ID)
	if err != nil {
		return nil, wrap("chat.list.groups", err)
	}
	channels, err := s.repos.Channels.ListForUser(ctx, actor.ID)
	if err != nil {
		return nil, wrap("chat.list.channels", err)
	}

	out := make([]domain.ChatListItem, 0, len(direct)+len(groups)+len(channels))
	out = append(out, direct...)
	out = append(out, groups...)
	out = append(out, channels...)
	sortChatList(out)
	return out, nil
}

func sortChatList(list []domain.ChatListItem) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i].LastTime, list[j].LastTime
		switch {
		case a == nil && b == nil:
			return list[i].Title < list[j].Title
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}

type History struct {
	Room     string           `json:"room"`
	Messages []domain.Message `json:"messages"`
	Pinned   *domain.Message  `json:"pinned,omitempty"`
	Page     int              `json:"page"`
	PerPage  int              `json:"per_page"`
}

// History: страница истории по возрастанию времени; для группы с закреплённым сообщением.
func (s *ChatService) History(ctx context.Context, actor domain.UserSummary, room domain.Room, page domain.Page) (*History, error) {
	res, err := s.resolve(ctx, actor, room, false)
	if err != nil {
		return nil, err
	}

	h := &History{Room: room.ID(), Messages: []domain.Message{}, Page: page.Number, PerPage: page.PerPage}
	if !res.Exists() {
		return h, nil
	}

	key := cache.HistoryKey(room.ID(), page.Number, page.PerPage)
	if !cacheGet(ctx, s.cache, key, &h.Messages) {
		msgs, err := s.repos.Messages.History(ctx, res.Conversation, page)
		if err != nil {
			return nil, wrap("chat.history", err)
		}
		h.Messages = msgs
		cacheSet(ctx, s.cache, key, msgs, cache.HistoryTTL)
	}

	if res.Group != nil && res.Group.PinnedMsgID != nil {
		pinned, err := s.repos.Messages.Get(ctx, *res.Group.PinnedMsgID)
		if err == nil {
			h.Pinned = pinned
		} else if domain.Code(err) == "internal" {
			return nil, wrap("chat.history.pinned", err)
		}
	}
	return h, nil
}

// Pinned: закреплённое сообщение группы; ErrNoPinned, если слот пуст.
func (s *ChatService) Pinned(ctx context.Context, actor domain.UserSummary, groupName string) (*domain.Message, error) {
	res, err := s.resolve(ctx, actor, domain.GroupRoom(groupName), false)
	if err != nil {
		return nil, err
	}
	if res.Group.PinnedMsgID == nil {
		return nil, domain.ErrNoPinned
	}
	m, err := s.repos.Messages.Get(ctx, *res.Group.PinnedMsgID)
	if err != nil {
		return nil, wrap("chat.pinned.get", err)
	}
	return m, nil
}

func (s *ChatService) Search(ctx context.Context, actor domain.UserSummary, room domain.Room, q string) ([]domain.Message, error) {
	res, err := s.resolve(ctx, actor, room, false)
	if err != nil {
		return nil, err
	}
	q = strings.TrimSpace(q)
	if q == "" || !res.Exists() {
		return []domain.Message{}, nil
	}
	list, err := s.repos.Messages.Search(ctx, res.Conversation, q, maxRoomSearch)
	if err != nil {
		return nil, wrap("chat.search", err)
	}
	return list, nil
}

// DeleteChat удаляет личный чат со всеми сообщениями. Возвращает имя собеседника для уведомления.
func (s *ChatService) DeleteChat(ctx context.Context, actor domain.UserSummary, chatID int64) (string, error) {
	chat, err := s.repos.Chats.GetByID(ctx, chatID)
	if err != nil {
		return "", wrap("chat.delete.get", err)
	}
	if !chat.Has(actor.ID) {
		return "", domain.ErrNotParticipant
	}
	peer, err := s.repos.Users.GetByID(ctx, chat.Other(actor.ID))
	if err != nil {
		return "", wrap("chat.delete.peer", err)
	}
	if err := s.repos.Chats.Delete(ctx, chatID); err != nil {
		return "", wrap("chat.delete", err)
	}

	cacheDrop(ctx, s.cache, cache.HistoryPattern(domain.DirectRoom(actor.Username, peer.Username).ID()))
	return peer.Username, nil
}

// DeleteGroup: любой участник может удалить группу. Возвращает участников для уведомления.
func (s *ChatService) DeleteGroup(ctx context.Context, actor domain.UserSummary, name string) (*Resolved, error) {
	res, err := s.resolve(ctx, actor, domain.GroupRoom(name), false)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Groups.Delete(ctx, res.Group.ID); err != nil {
		return nil, wrap("chat.deleteGroup", err)
	}
	cacheDrop(ctx, s.cache, cache.HistoryPattern(res.Room.ID()))
	return res, nil
}
