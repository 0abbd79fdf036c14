package http

import (
	"time"

	"github.com/cwrk-planet/messenger/internal/domain"
	"github.com/cwrk-planet/messenger/internal/service"
)

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ChangeUsernameRequest struct {
	Username string `json:"username"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type ProfilePatchRequest struct {
	City      *string `json:"city"`
	BioShort  *string `json:"bio_short"`
	Country   *string `json:"country"`
	Languages *string `json:"languages"`
	BioFull   *string `json:"bio_full"`
	Hobbies   *string `json:"hobbies"`
}

func (p ProfilePatchRequest) toDomain() domain.ProfilePatch {
	return domain.ProfilePatch{
		City:      p.City,
		BioShort:  p.BioShort,
		Country:   p.Country,
		Languages: p.Languages,
		BioFull:   p.BioFull,
		Hobbies:   p.Hobbies,
	}
}

type PostRequest struct {
	Content  string  `json:"content"`
	ImageURL *string `json:"image_url"`
}

type PostPatchRequest struct {
	Content  *string `json:"content"`
	ImageURL *string `json:"image_url"`
}

type CommentRequest struct {
	Content string `json:"content"`
}

type ReactionRequest struct {
	Reaction string `json:"reaction"`
}

type ChannelRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type RoleRequest struct {
	Role string `json:"role"`
}

type InviteRequest struct {
	TTLSeconds int64 `json:"ttl_seconds"` // 0: бессрочно
	MaxUses    *int  `json:"max_uses"`
}

func (r InviteRequest) toParams() service.InviteParams {
	return service.InviteParams{TTL: time.Duration(r.TTLSeconds) * time.Second, MaxUses: r.MaxUses}
}

type UserResponse struct {
	ID        domain.UserID  `json:"id"`
	Username  string         `json:"username"`
	Profile   domain.Profile `json:"profile"`
	CreatedAt time.Time      `json:"created_at"`
}

func userResponse(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, Profile: u.Profile, CreatedAt: u.CreatedAt}
}

type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"` // секунды
	User        UserResponse `json:"user"`
}

func authResponse(res *service.AuthResult) AuthResponse {
	return AuthResponse{
		AccessToken: res.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(res.ExpiresIn / time.Second),
		User:        userResponse(res.User),
	}
}
