package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/cwrk-planet/messenger/internal/cache"
	"github.com/cwrk-planet/messenger/internal/domain"
	"github.com/cwrk-planet/messenger/internal/repository"
)

const defaultSearchLimit = 20

// SocialService: профили, подписки, посты и реакции на них.
type SocialService struct {
	users   repository.UserRepository
	follows repository.FollowRepository
	posts   repository.PostRepository
	cache   cache.Cache
	now     func() time.Time
}

func NewSocialService(repos Repos, c cache.Cache, now func() time.Time) *SocialService {
	if c == nil {
		c = cache.Nop{}
	}
	return &SocialService{
		users:   repos.Users,
		follows: repos.Follows,
		posts:   repos.Posts,
		cache:   c,
		now:     orNow(now),
	}
}

// Profile возвращает карточку пользователя с глазами смотрящего.
func (s *SocialService) Profile(ctx context.Context, viewer domain.UserSummary, username string) (*domain.ProfileView, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, wrap("social.profile.getByUsername", err)
	}

	key := cache.ProfileKey(int64(u.ID))
	var view domain.ProfileView
	if !cacheGet(ctx, s.cache, key, &view) {
		followers, following, err := s.follows.Counts(ctx, u.ID)
		if err != nil {
			return nil, wrap("social.profile.counts", err)
		}
		view = domain.ProfileView{
			ID:        u.ID,
			Username:  u.Username,
			Profile:   u.Profile,
			Followers: followers,
			Following: following,
			CreatedAt: u.CreatedAt,
		}
		cacheSet(ctx, s.cache, key, view, cache.ProfileTTL)
	}

	view.IsOwner = viewer.ID == u.ID
	view.IsFollowing = nil
	if !view.IsOwner {
		ok, err := s.follows.IsFollowing(ctx, viewer.ID, u.ID)
		if err != nil {
			return nil, wrap("social.profile.isFollowing", err)
		}
		view.IsFollowing = &ok
	}
	return &view, nil
}

func (s *SocialService) UpdateProfile(ctx context.Context, userID domain.UserID, patch domain.ProfilePatch) (*domain.User, error) {
	if !patch.Empty() {
		if err := s.users.UpdateProfile(ctx, userID, patch); err != nil {
			return nil, wrap("social.updateProfile", err)
		}
		s.dropProfiles(ctx, userID)
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, wrap("social.updateProfile.getByID", err)
	}
	return u, nil
}

// SearchUsers: поиск по подстроке имени, без самого ищущего.
func (s *SocialService) SearchUsers(ctx context.Context, actor domain.UserSummary, q string) ([]domain.UserSummary, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []domain.UserSummary{}, nil
	}
	list, err := s.users.Search(ctx, strings.ToLower(q), actor.ID, defaultSearchLimit)
	if err != nil {
		return nil, wrap("social.searchUsers", err)
	}
	return list, nil
}

func (s *SocialService) Follow(ctx context.Context, actor domain.UserSummary, username string) error {
	target, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return wrap("social.follow.getByUsername", err)
	}
	if target.ID == actor.ID {
		return domain.ErrSelfAction
	}
	if err := s.follows.Follow(ctx, actor.ID, target.ID); err != nil {
		return wrap("social.follow", err)
	}
	s.afterFollowChange(ctx, actor, target.ID)
	return nil
}

func (s *SocialService) Unfollow(ctx context.Context, actor domain.UserSummary, username string) error {
	target, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return wrap("social.unfollow.getByUsername", err)
	}
	if target.ID == actor.ID {
		return domain.ErrSelfAction
	}
	if err := s.follows.Unfollow(ctx, actor.ID, target.ID); err != nil {
		return wrap("social.unfollow", err)
	}
	s.afterFollowChange(ctx, actor, target.ID)
	return nil
}

// счётчики обоих профилей и лента подписчика устарели
func (s *SocialService) afterFollowChange(ctx context.Context, actor domain.UserSummary, target domain.UserID) {
	s.dropProfiles(ctx, actor.ID, target)
	cacheDrop(ctx, s.cache, cache.FeedPattern(actor.Username))
}

func (s *SocialService) Followers(ctx context.Context, username string) ([]domain.UserSummary, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, wrap("social.followers.getByUsername", err)
	}
	list, err := s.follows.Followers(ctx, u.ID)
	if err != nil {
		return nil, wrap("social.followers", err)
	}
	return list, nil
}

func (s *SocialService) Following(ctx context.Context, username string) ([]domain.UserSummary, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, wrap("social.following.getByUsername", err)
	}
	list, err := s.follows.Following(ctx, u.ID)
	if err != nil {
		return nil, wrap("social.following", err)
	}
	return list, nil
}

func (s *SocialService) CreatePost(ctx context.Context, actor domain.UserSummary, content string, imageURL *string) (*domain.Post, error) {
	content, err := domain.NormalizeContent(content, domain.MaxPostLen)
	if err != nil {
		return nil, err
	}

	p := &domain.Post{
		AuthorID:  actor.ID,
		Author:    actor.Username,
		Content:   content,
		ImageURL:  imageURL,
		CreatedAt: s.now().UTC(),
	}
	if err := s.posts.Create(ctx, p); err != nil {
		return nil, wrap("social.createPost", err)
	}
	s.dropFeeds(ctx, actor)
	return p, nil
}

func (s *SocialService) UpdatePost(ctx context.Context, actor domain.UserSummary, id domain.PostID, patch domain.PostPatch) (*domain.Post, error) {
	if _, err := s.ownPost(ctx, actor, id); err != nil {
		return nil, err
	}
	if patch.Content != nil {
		content, err := domain.NormalizeContent(*patch.Content, domain.MaxPostLen)
		if err != nil {
			return nil, err
		}
		patch.Content = &content
	}

	if !patch.Empty() {
		if err := s.posts.Update(ctx, id, patch); err != nil {
			return nil, wrap("social.updatePost", err)
		}
		s.dropFeeds(ctx, actor)
	}

	p, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, wrap("social.updatePost.get", err)
	}
	return p, nil
}

func (s *SocialService) DeletePost(ctx context.Context, actor domain.UserSummary, id domain.PostID) error {
	if _, err := s.ownPost(ctx, actor, id); err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return wrap("social.deletePost", err)
	}
	s.dropFeeds(ctx, actor)
	return nil
}

func (s *SocialService) ownPost(ctx context.Context, actor domain.UserSummary, id domain.PostID) (*domain.Post, error) {
	p, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, wrap("social.post.get", err)
	}
	if p.AuthorID != actor.ID {
		return nil, domain.ErrNotOwner
	}
	return p, nil
}

func (s *SocialService) UserPosts(ctx context.Context, username string, page domain.Page) ([]domain.Post, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, wrap("social.userPosts.getByUsername", err)
	}
	list, err := s.posts.ListByAuthor(ctx, u.ID, page)
	if err != nil {
		return nil, wrap("social.userPosts", err)
	}
	return list, nil
}

// Feed: свои посты и посты подписок, новые сверху; страница кешируется.
func (s *SocialService) Feed(ctx context.Context, actor domain.UserSummary, page domain.Page) ([]domain.Post, error) {
	key := cache.FeedKey(actor.Username, page.Number, page.PerPage)

	var list []domain.Post
	if cacheGet(ctx, s.cache, key, &list) {
		return list, nil
	}
	list, err := s.posts.Feed(ctx, actor.ID, page)
	if err != nil {
		return nil, wrap("social.feed", err)
	}
	cacheSet(ctx, s.cache, key, list, cache.FeedTTL)
	return list, nil
}

func (s *SocialService) SearchPosts(ctx context.Context, q string) ([]domain.Post, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []domain.Post{}, nil
	}
	list, err := s.posts.Search(ctx, q, defaultSearchLimit)
	if err != nil {
		return nil, wrap("social.searchPosts", err)
	}
	return list, nil
}

func (s *SocialService) Like(ctx context.Context, actor domain.UserSummary, id domain.PostID) error {
	return s.engage(ctx, actor, id, "social.like", s.posts.Like)
}

func (s *SocialService) Unlike(ctx context.Context, actor domain.UserSummary, id domain.PostID) error {
	return s.engage(ctx, actor, id, "social.unlike", s.posts.Unlike)
}

func (s *SocialService) Repost(ctx context.Context, actor domain.UserSummary, id domain.PostID) error {
	return s.engage(ctx, actor, id, "social.repost", s.posts.Repost)
}

func (s *SocialService) Unrepost(ctx context.Context, actor domain.UserSummary, id domain.PostID) error {
	return s.engage(ctx, actor, id, "social.unrepost", s.posts.Unrepost)
}

func (s *SocialService) Unreact(ctx context.Context, actor domain.UserSummary, id domain.PostID) error {
	return s.engage(ctx, actor, id, "social.unreact", s.posts.Unreact)
}

func (s *SocialService) React(ctx context.Context, actor domain.UserSummary, id domain.PostID, reaction string) error {
	reaction, err := domain.NormalizeContent(reaction, domain.MaxReactionLen)
	if err != nil {
		return err
	}
	return s.engage(ctx, actor, id, "social.react", func(ctx context.Context, u domain.UserID, p domain.PostID) error {
		return s.posts.React(ctx, u, p, reaction)
	})
}

func (s *SocialService) engage(
	ctx context.Context,
	actor domain.UserSummary,
	id domain.PostID,
	op string,
	fn func(context.Context, domain.UserID, domain.PostID) error,
) error {
	p, err := s.posts.Get(ctx, id)
	if err != nil {
		return wrap(op+".get", err)
	}
	if err := fn(ctx, actor.ID, id); err != nil {
		return wrap(op, err)
	}
	// счётчики в ленте автора и его подписчиков
	s.dropFeeds(ctx, domain.UserSummary{ID: p.AuthorID, Username: p.Author})
	return nil
}

func (s *SocialService) Comment(ctx context.Context, actor domain.UserSummary, id domain.PostID, content string) (*domain.Comment, error) {
	content, err := domain.NormalizeContent(content, domain.MaxPostLen)
	if err != nil {
		return nil, err
	}
	p, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, wrap("social.comment.get", err)
	}

	c := &domain.Comment{
		PostID:    id,
		AuthorID:  actor.ID,
		Author:    actor.Username,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
	if err := s.posts.AddComment(ctx, c); err != nil {
		return nil, wrap("social.comment", err)
	}
	s.dropFeeds(ctx, domain.UserSummary{ID: p.AuthorID, Username: p.Author})
	return c, nil
}

func (s *SocialService) Comments(ctx context.Context, id domain.PostID) ([]domain.Comment, error) {
	if _, err := s.posts.Get(ctx, id); err != nil {
		return nil, wrap("social.comments.get", err)
	}
	list, err := s.posts.Comments(ctx, id)
	if err != nil {
		return nil, wrap("social.comments", err)
	}
	return list, nil
}

// dropFeeds сбрасывает ленту автора и всех его подписчиков.
func (s *SocialService) dropFeeds(ctx context.Context, author domain.UserSummary) {
	patterns := []string{cache.FeedPattern(author.Username)}
	followers, err := s.follows.Followers(ctx, author.ID)
	if err != nil {
		slog.Warn("social.dropFeeds.followers failed", slog.Any("err", err))
	}
	for _, f := range followers {
		patterns = append(patterns, cache.FeedPattern(f.Username))
	}
	cacheDrop(ctx, s.cache, patterns...)
}

func (s *SocialService) dropProfiles(ctx context.Context, ids ...domain.UserID) {
	for _, id := range ids {
		if err := s.cache.Delete(ctx, cache.ProfileKey(int64(id))); err != nil {
			slog.Warn("cache.drop failed", slog.Int64("user_id", int64(id)), slog.Any("err", err))
		}
	}
}
