package service

import (
	"context"
	"strings"
	"time"

	"github.com/cwrk-planet/messenger/internal/cache"
	"github.com/cwrk-planet/messenger/internal/domain"
	"github.com/cwrk-planet/messenger/internal/security"
)

type ChannelService struct {
	resolver
	now func() time.Time
}

func NewChannelService(repos Repos, c cache.Cache, now func() time.Time) *ChannelService {
	if c == nil {
		c = cache.Nop{}
	}
	return &ChannelService{resolver: resolver{repos: repos, cache: c}, now: orNow(now)}
}

// Create: канал с ролями по умолчанию; создатель сразу Admin.
func (s *ChannelService) Create(ctx context.Context, actor domain.UserSummary, name, description string) (*domain.Channel, error) {
	name = strings.TrimSpace(name)
	if err := domain.ValidateRoomName(name); err != nil {
		return nil, err
	}

	ch := &domain.Channel{
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatorID:   actor.ID,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repos.Channels.Create(ctx, ch); err != nil {
		return nil, wrap("channel.create", err)
	}
	return ch, nil
}

type ChannelView struct {
	Channel *domain.Channel `json:"channel"`
	Role    domain.Role     `json:"role"`
	Members int             `json:"members"`
}

func (s *ChannelService) Get(ctx context.Context, actor domain.UserSummary, name string) (*ChannelView, error) {
	res, err := s.resolve(ctx, actor, domain.ChannelRoom(name), false)
	if err != nil {
		return nil, err
	}
	return &ChannelView{Channel: res.Channel, Role: res.Role, Members: len(res.Members)}, nil
}

// Delete: только Admin. Возвращает участников для уведомления.
func (s *ChannelService) Delete(ctx context.Context, actor domain.UserSummary, name string) (*Resolved, error) {
	res, err := s.resolve(ctx, actor, domain.ChannelRoom(name), false)
	if err != nil {
		return nil, err
	}
	if res.Role != domain.RoleAdmin {
		return nil, domain.ErrPermissionDenied
	}
	if err := s.repos.Channels.Delete(ctx, res.Channel.ID); err != nil {
		return nil, wrap("channel.delete", err)
	}
	s.dropChannelMembers(ctx, res.Channel.ID)
	cacheDrop(ctx, s.cache, cache.HistoryPattern(res.Room.ID()))
	return res, nil
}

func (s *ChannelService) Members(ctx context.Context, actor domain.UserSummary, name string) ([]domain.ChannelMember, error) {
	res, err := s.resolve(ctx, actor, domain.ChannelRoom(name), false)
	if err != nil {
		return nil, err
	}
	return s.channelMembers(ctx, res.Channel.ID)
}

// authorize разрешает канал и проверяет право actor-а.
func (s *ChannelService) authorize(ctx context.Context, actor domain.UserSummary, name string, perm domain.Permission) (*Resolved, error) {
	res, err := s.resolve(ctx, actor, domain.ChannelRoom(name), false)
	if err != nil {
		return nil, err
	}
	if !res.Role.Can(perm) {
		return nil, domain.ErrPermissionDenied
	}
	return res, nil
}

func (s *ChannelService) SetRole(ctx context.Context, actor domain.UserSummary, name, username, role string) error {
	r, err := domain.ParseRole(role)
	if err != nil {
		return err
	}
	res, err := s.authorize(ctx, actor, name, domain.PermManageRoles)
	if err != nil {
		return err
	}
	target, err := s.repos.Users.GetByUsername(ctx, username)
	if err != nil {
		return wrap("channel.setRole.user", err)
	}

	if err := s.repos.Channels.SetRole(ctx, res.Channel.ID, target.ID, r); err != nil {
		return wrap("channel.setRole", err)
	}
	s.dropChannelMembers(ctx, res.Channel.ID)
	return nil
}

func (s *ChannelService) RemoveMember(ctx context.Context, actor domain.UserSummary, name, username string) error {
	res, err := s.authorize(ctx, actor, name, domain.PermManageMembers)
	if err != nil {
		return err
	}
	target, err := s.repos.Users.GetByUsername(ctx, username)
	if err != nil {
		return wrap("channel.removeMember.user", err)
	}

	if err := s.repos.Channels.RemoveMember(ctx, res.Channel.ID, target.ID); err != nil {
		return wrap("channel.removeMember", err)
	}
	s.dropChannelMembers(ctx, res.Channel.ID)
	return nil
}

// Leave: выход из канала; последний Admin уйти не может.
func (s *ChannelService) Leave(ctx context.Context, actor domain.UserSummary, name string) error {
	res, err := s.resolve(ctx, actor, domain.ChannelRoom(name), false)
	if err != nil {
		return err
	}
	if err := s.repos.Channels.RemoveMember(ctx, res.Channel.ID, actor.ID); err != nil {
		return wrap("channel.leave", err)
	}
	s.dropChannelMembers(ctx, res.Channel.ID)
	return nil
}

type InviteParams struct {
	TTL     time.Duration // 0: бессрочно
	MaxUses *int
}

func (s *ChannelService) CreateInvite(ctx context.Context, actor domain.UserSummary, name string, p InviteParams) (*domain.Invite, error) {
	if p.TTL < 0 || (p.MaxUses != nil && *p.MaxUses < 1) {
		return nil, domain.ErrInvalidInput
	}
	res, err := s.authorize(ctx, actor, name, domain.PermManageInvites)
	if err != nil {
		return nil, err
	}

	code, err := security.NewInviteCode()
	if err != nil {
		return nil, wrap("channel.invite.code", err)
	}
	now := s.now().UTC()
	inv := &domain.Invite{
		ChannelID: res.Channel.ID,
		Code:      code,
		CreatedBy: actor.ID,
		MaxUses:   p.MaxUses,
		CreatedAt: now,
	}
	if p.TTL > 0 {
		exp := now.Add(p.TTL)
		inv.ExpiresAt = &exp
	}

	if err := s.repos.Channels.CreateInvite(ctx, inv); err != nil {
		return nil, wrap("channel.invite.create", err)
	}
	return inv, nil
}

func (s *ChannelService) ListInvites(ctx context.Context, actor domain.UserSummary, name string) ([]domain.Invite, error) {
	res, err := s.authorize(ctx, actor, name, domain.PermManageInvites)
	if err != nil {
		return nil, err
	}
	list, err := s.repos.Channels.ListInvites(ctx, res.Channel.ID)
	if err != nil {
		return nil, wrap("channel.invite.list", err)
	}
	return list, nil
}

func (s *ChannelService) DeleteInvite(ctx context.Context, actor domain.UserSummary, name string, inviteID int64) error {
	res, err := s.authorize(ctx, actor, name, domain.PermManageInvites)
	if err != nil {
		return err
	}
	if err := s.repos.Channels.DeleteInvite(ctx, res.Channel.ID, inviteID); err != nil {
		return wrap("channel.invite.delete", err)
	}
	return nil
}

// Redeem гасит инвайт: Expired/Exhausted, если он уже недействителен.
func (s *ChannelService) Redeem(ctx context.Context, actor domain.UserSummary, code string) (*domain.Channel, error) {
	code = strings.TrimSpace(code)
	if !security.LooksLikeInviteCode(code) {
		return nil, domain.ErrInviteNotFound
	}
	ch, err := s.repos.Channels.RedeemInvite(ctx, code, actor.ID, s.now().UTC())
	if err != nil {
		return nil, wrap("channel.invite.redeem", err)
	}
	s.dropChannelMembers(ctx, ch.ID)
	return ch, nil
}
