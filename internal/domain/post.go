package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

type PostID int64

type Post struct {
	ID        PostID     `json:"id"`
	AuthorID  UserID     `json:"author_id"`
	Author    string     `json:"author"`
	Content   string     `json:"content"`
	ImageURL  *string    `json:"image_url,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`

	Likes    int `json:"likes"`
	Comments int `json:"comments"`
	Reposts  int `json:"reposts"`
}

type PostPatch struct {
	Content  *string
	ImageURL *string
}

func (p PostPatch) Empty() bool { return p.Content == nil && p.ImageURL == nil }

type Comment struct {
	ID        int64     `json:"id"`
	PostID    PostID    `json:"post_id"`
	AuthorID  UserID    `json:"author_id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	MaxPostLen     = 10000
	MaxReactionLen = 16
)

func NormalizeContent(s string, max int) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyContent
	}
	if utf8.RuneCountInString(s) > max {
		return "", ErrBodyTooLong
	}
	return s, nil
}

// ProfileView: профиль пользователя глазами viewer-а.
type ProfileView struct {
	ID          UserID    `json:"id"`
	Username    string    `json:"username"`
	Profile     Profile   `json:"profile"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	IsOwner     bool      `json:"is_owner"`
	IsFollowing *bool     `json:"is_following,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
