package repository

import (
	"context"

	"github.com/cwrk-planet/messenger/internal/domain"
)

type FollowRepository interface {
	Follow(ctx context.Context, follower, followee domain.UserID) error
	Unfollow(ctx context.Context, follower, followee domain.UserID) error
	IsFollowing(ctx context.Context, follower, followee domain.UserID) (bool, error)
	Followers(ctx context.Context, id domain.UserID) ([]domain.UserSummary, error)
	Following(ctx context.Context, id domain.UserID) ([]domain.UserSummary, error)
	Counts(ctx context.Context, id domain.UserID) (followers int, following int, err error)
}

type PostRepository interface {
	Create(ctx context.Context, p *domain.Post) error
	Get(ctx context.Context, id domain.PostID) (*domain.Post, error)
	Update(ctx context.Context, id domain.PostID, patch domain.PostPatch) error
	Delete(ctx context.Context, id domain.PostID) error
	ListByAuthor(ctx context.Context, author domain.UserID, page domain.Page) ([]domain.Post, error)
	// Feed: свои посты и посты подписок, новые сверху
	Feed(ctx context.Context, userID domain.UserID, page domain.Page) ([]domain.Post, error)
	Search(ctx context.Context, query string, limit int) ([]domain.Post, error)

	Like(ctx context.Context, userID domain.UserID, postID domain.PostID) error
	Unlike(ctx context.Context, userID domain.UserID, postID domain.PostID) error
	AddComment(ctx context.Context, c *domain.Comment) error
	Comments(ctx context.Context, postID domain.PostID) ([]domain.Comment, error)
	React(ctx context.Context, userID domain.UserID, postID domain.PostID, reaction string) error
	Unreact(ctx context.Context, userID domain.UserID, postID domain.PostID) error
	Repost(ctx context.Context, userID domain.UserID, postID domain.PostID) error
	Unrepost(ctx context.Context, userID domain.UserID, postID domain.PostID) error
}
