package service

import (
	"context"
	"time"

	"github.com/cwrk-planet/messenger/internal/cache"
	"github.com/cwrk-planet/messenger/internal/domain"
)

// MessageService: мутации, которые приходят из realtime-канала.
type MessageService struct {
	resolver
	now func() time.Time
}

func NewMessageService(repos Repos, c cache.Cache, now func() time.Time) *MessageService {
	if c == nil {
		c = cache.Nop{}
	}
	return &MessageService{resolver: resolver{repos: repos, cache: c}, now: orNow(now)}
}

type Sent struct {
	Message *domain.Message
	Room    *Resolved
}

// Send проверяет право писать, сохраняет сообщение со статусом sent.
// В канал пишут только держатели права write; иначе ничего не сохраняется.
func (s *MessageService) Send(ctx context.Context, actor domain.UserSummary, room domain.Room, draft domain.Draft) (*Sent, error) {
	draft, err := draft.Normalize()
	if err != nil {
		return nil, err
	}

	res, err := s.resolve(ctx, actor, room, true)
	if err != nil {
		return nil, err
	}
	if res.Channel != nil && !res.Role.Can(domain.PermWrite) {
		return nil, domain.ErrPermissionDenied
	}

	if draft.ParentID != nil {
		parent, err := s.repos.Messages.Get(ctx, *draft.ParentID)
		if err != nil {
			return nil, wrap("message.send.parent", err)
		}
		if parent.Conversation != res.Conversation {
			return nil, domain.ErrMessageNotFound
		}
	}

	m := &domain.Message{
		Conversation: res.Conversation,
		SenderID:     actor.ID,
		Sender:       actor.Username,
		Body:         draft.Body,
		Kind:         draft.Kind,
		ParentID:     draft.ParentID,
		MediaPath:    draft.MediaPath,
		Status:       domain.StatusSent,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repos.Messages.Create(ctx, m); err != nil {
		return nil, wrap("message.send.save", err)
	}
	s.dropHistory(ctx, room)

	return &Sent{Message: m, Room: res}, nil
}

// AdvanceStatus двигает статус вперёд; changed=false, если он уже не ниже.
func (s *MessageService) AdvanceStatus(ctx context.Context, room domain.Room, id domain.MessageID, to domain.Status) (bool, error) {
	changed, err := s.repos.Messages.AdvanceStatus(ctx, id, to)
	if err != nil {
		return false, wrap("message.advanceStatus", err)
	}
	if changed {
		s.dropHistory(ctx, room)
	}
	return changed, nil
}

// SweepRead помечает прочитанными все чужие непрочитанные сообщения комнаты.
// Другие комнаты не трогает.
func (s *MessageService) SweepRead(ctx context.Context, actor domain.UserSummary, room domain.Room) ([]domain.MessageID, error) {
	res, err := s.resolve(ctx, actor, room, false)
	if err != nil {
		return nil, err
	}
	if !res.Exists() {
		return nil, nil
	}

	ids, err := s.repos.Messages.MarkRead(ctx, res.Conversation, actor.ID)
	if err != nil {
		return nil, wrap("message.sweepRead", err)
	}
	if len(ids) > 0 {
		s.dropHistory(ctx, room)
	}
	return ids, nil
}

// own находит сообщение комнаты и проверяет, что actor: его автор.
func (s *MessageService) own(ctx context.Context, actor domain.UserSummary, room domain.Room, id domain.MessageID) (*domain.Message, *Resolved, error) {
	res, err := s.resolve(ctx, actor, room, false)
	if err != nil {
		return nil, nil, err
	}
	m, err := s.repos.Messages.Get(ctx, id)
	if err != nil {
		return nil, nil, wrap("message.get", err)
	}
	if m.Conversation != res.Conversation {
		return nil, nil, domain.ErrMessageNotFound
	}
	if m.SenderID != actor.ID {
		return nil, nil, domain.ErrNotSender
	}
	return m, res, nil
}

func (s *MessageService) Edit(ctx context.Context, actor domain.UserSummary, room domain.Room, id domain.MessageID, body string) (*domain.Message, error) {
	body, err := domain.NormalizeBody(body)
	if err != nil {
		return nil, err
	}
	m, _, err := s.own(ctx, actor, room, id)
	if err != nil {
		return nil, err
	}

	if err := s.repos.Messages.UpdateBody(ctx, id, body); err != nil {
		return nil, wrap("message.edit", err)
	}
	s.dropHistory(ctx, room)

	m.Body = body
	m.Edited = true
	return m, nil
}

func (s *MessageService) Delete(ctx context.Context, actor domain.UserSummary, room domain.Room, id domain.MessageID) error {
	if _, _, err := s.own(ctx, actor, room, id); err != nil {
		return err
	}
	if err := s.repos.Messages.Delete(ctx, id); err != nil {
		return wrap("message.delete", err)
	}
	s.dropHistory(ctx, room)
	return nil
}

// Pin кладёт сообщение в единственный слот группы, вытесняя прежнее.
func (s *MessageService) Pin(ctx context.Context, actor domain.UserSummary, room domain.Room, id domain.MessageID) (*domain.Message, error) {
	if room.Kind != domain.RoomGroup {
		return nil, domain.ErrNotGroupRoom
	}
	res, err := s.resolve(ctx, actor, room, false)
	if err != nil {
		return nil, err
	}

	m, err := s.repos.Messages.Get(ctx, id)
	if err != nil {
		return nil, wrap("message.pin.get", err)
	}
	if m.Conversation != res.Conversation {
		return nil, domain.ErrMessageNotFound
	}
	if err := s.repos.Groups.SetPinned(ctx, res.Group.ID, &m.ID); err != nil {
		return nil, wrap("message.pin", err)
	}
	return m, nil
}

func (s *MessageService) Unpin(ctx context.Context, actor domain.UserSummary, room domain.Room) error {
	if room.Kind != domain.RoomGroup {
		return domain.ErrNotGroupRoom
	}
	res, err := s.resolve(ctx, actor, room, false)
	if err != nil {
		return err
	}
	if err := s.repos.Groups.SetPinned(ctx, res.Group.ID, nil); err != nil {
		return wrap("message.unpin", err)
	}
	return nil
}

// CreateGroup создаёт группу из создателя и тех участников, кого удалось найти.
// Возвращает группу и имена всех участников.
func (s *MessageService) CreateGroup(ctx context.Context, actor domain.UserSummary, name string, members []string) (*domain.Group, []string, error) {
	if err := domain.ValidateRoomName(name); err != nil {
		return nil, nil, err
	}

	found, err := s.repos.Users.ListByUsernames(ctx, members)
	if err != nil {
		return nil, nil, wrap("group.create.resolveMembers", err)
	}
	ids := make([]domain.UserID, 0, len(found))
	names := []string{actor.Username}
	for _, u := range found {
		if u.ID == actor.ID {
			continue
		}
		ids = append(ids, u.ID)
		names = append(names, u.Username)
	}

	g := &domain.Group{Name: name, CreatorID: actor.ID, CreatedAt: s.now().UTC()}
	if err := s.repos.Groups.Create(ctx, g, ids); err != nil {
		return nil, nil, wrap("group.create", err)
	}
	return g, names, nil
}

// PeerExists: для new_chat / delete_chat_socket: собеседник должен существовать.
func (s *MessageService) PeerExists(ctx context.Context, username string) (string, error) {
	u, err := s.repos.Users.GetByUsername(ctx, username)
	if err != nil {
		return "", wrap("message.peer", err)
	}
	return u.Username, nil
}

func (s *MessageService) dropHistory(ctx context.Context, room domain.Room) {
	cacheDrop(ctx, s.cache, cache.HistoryPattern(room.ID()))
}
