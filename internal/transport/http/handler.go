package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/cwrk-planet/messenger/internal/domain"
	"github.com/cwrk-planet/messenger/internal/service"
	httpmw "github.com/cwrk-planet/messenger/internal/transport/http/middleware"
	"github.com/cwrk-planet/messenger/internal/transport/ws"

	"github.com/go-chi/chi/v5"
)

type AuthAPI interface {
	Register(ctx context.Context, username, password string) (*service.AuthResult, error)
	Login(ctx context.Context, username, password string) (*service.AuthResult, error)
	Authenticate(ctx context.Context, token string) (domain.UserSummary, error)
	Me(ctx context.Context, userID domain.UserID) (*domain.User, error)
	ChangeUsername(ctx context.Context, userID domain.UserID, username string) (*service.AuthResult, error)
	ChangePassword(ctx context.Context, userID domain.UserID, oldPassword, newPassword string) error
}

type SocialAPI interface {
	Profile(ctx context.Context, viewer domain.UserSummary, username string) (*domain.ProfileView, error)
	UpdateProfile(ctx context.Context, userID domain.UserID, patch domain.ProfilePatch) (*domain.User, error)
	SearchUsers(ctx context.Context, actor domain.UserSummary, q string) ([]domain.UserSummary, error)
	Follow(ctx context.Context, actor domain.UserSummary, username string) error
	Unfollow(ctx context.Context, actor domain.UserSummary, username string) error
	Followers(ctx context.Context, username string) ([]domain.UserSummary, error)
	Following(ctx context.Context, username string) ([]domain.UserSummary, error)

	CreatePost(ctx context.Context, actor domain.UserSummary, content string, imageURL *string) (*domain.Post, error)
	UpdatePost(ctx context.Context, actor domain.UserSummary, id domain.PostID, patch domain.PostPatch) (*domain.Post, error)
	DeletePost(ctx context.Context, actor domain.UserSummary, id domain.PostID) error
	UserPosts(ctx context.Context, username string, page domain.Page) ([]domain.Post, error)
	Feed(ctx context.Context, actor domain.UserSummary, page domain.Page) ([]domain.Post, error)
	SearchPosts(ctx context.Context, q string) ([]domain.Post, error)

	Like(ctx context.Context, actor domain.UserSummary, id domain.PostID) error
	Unlike(ctx context.Context, actor domain.UserSummary, id domain.PostID) error
	Repost(ctx context.Context, actor domain.UserSummary, id domain.PostID) error
	Unrepost(ctx context.Context, actor domain.UserSummary, id domain.PostID) error
	React(ctx context.Context, actor domain.UserSummary, id domain.PostID, reaction string) error
	Unreact(ctx context.Context, actor domain.UserSummary, id domain.PostID) error
	Comment(ctx context.Context, actor domain.UserSummary, id domain.PostID, content string) (*domain.Comment, error)
	Comments(ctx context.Context, id domain.PostID) ([]domain.Comment, error)
}

type ChatAPI interface {
	ChatList(ctx context.Context, actor domain.UserSummary) ([]domain.ChatListItem, error)
	History(ctx context.Context, actor domain.UserSummary, room domain.Room, page domain.Page) (*service.History, error)
	Pinned(ctx context.Context, actor domain.UserSummary, groupName string) (*domain.Message, error)
	Search(ctx context.Context, actor domain.UserSummary, room domain.Room, q string) ([]domain.Message, error)
	DeleteChat(ctx context.Context, actor domain.UserSummary, chatID int64) (string, error)
	DeleteGroup(ctx context.Context, actor domain.UserSummary, name string) (*service.Resolved, error)
}

type ChannelAPI interface {
	Create(ctx context.Context, actor domain.UserSummary, name, description string) (*domain.Channel, error)
	Get(ctx context.Context, actor domain.UserSummary, name string) (*service.ChannelView, error)
	Delete(ctx context.Context, actor domain.UserSummary, name string) (*service.Resolved, error)
	Members(ctx context.Context, actor domain.UserSummary, name string) ([]domain.ChannelMember, error)
	SetRole(ctx context.Context, actor domain.UserSummary, name, username, role string) error
	RemoveMember(ctx context.Context, actor domain.UserSummary, name, username string) error
	Leave(ctx context.Context, actor domain.UserSummary, name string) error
	CreateInvite(ctx context.Context, actor domain.UserSummary, name string, p service.InviteParams) (*domain.Invite, error)
	ListInvites(ctx context.Context, actor domain.UserSummary, name string) ([]domain.Invite, error)
	DeleteInvite(ctx context.Context, actor domain.UserSummary, name string, inviteID int64) error
	Redeem(ctx context.Context, actor domain.UserSummary, code string) (*domain.Channel, error)
}

// Notifier: выход в realtime-канал: HTTP-ручки иногда должны толкнуть событие онлайн-пользователю.
type Notifier interface {
	NotifyUser(username string, msg ws.Message) bool
	Online() []string
}

type Handler struct {
	auth     AuthAPI
	social   SocialAPI
	chats    ChatAPI
	channels ChannelAPI
	notify   Notifier
}

func NewHandler(auth AuthAPI, social SocialAPI, chats ChatAPI, channels ChannelAPI, notify Notifier) *Handler {
	return &Handler{
		auth:     auth,
		social:   social,
		chats:    chats,
		channels: channels,
		notify:   notify,
	}
}

const maxBodyBytes = 1 << 20

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty body: %w", domain.ErrInvalidInput)
		}
		return fmt.Errorf("invalid json: %w", domain.ErrInvalidInput)
	}
	return nil
}

// actor: пользователь из AuthMiddleware; без него ручка не вызывается.
func actor(r *http.Request) domain.UserSummary {
	u, _ := httpmw.UserFromCtx(r.Context())
	return u
}

func int64Param(r *http.Request, name string) (int64, error) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s: %w", name, domain.ErrInvalidInput)
	}
	return v, nil
}

func usernameParam(r *http.Request) string {
	return domain.NormalizeUsername(chi.URLParam(r, "username"))
}

// pageFrom: ?page=&per_page=, по умолчанию первая страница.
func pageFrom(r *http.Request) (domain.Page, error) {
	q := r.URL.Query()
	page, perPage := 1, domain.DefaultPerPage
	if v := strings.TrimSpace(q.Get("page")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return domain.Page{}, domain.ErrInvalidPage
		}
		page = n
	}
	if v := strings.TrimSpace(q.Get("per_page")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return domain.Page{}, domain.ErrInvalidPage
		}
		perPage = n
	}
	return domain.NewPage(page, perPage)
}
