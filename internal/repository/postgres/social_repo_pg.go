package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/cwrk-planet/messenger/internal/domain"
	"github.com/cwrk-planet/messenger/internal/repository/queries"

	"github.com/jackc/pgx/v5"
)

type FollowRepo struct {
	q dbtx
}

func NewFollowRepoFromPool(q dbtx) *FollowRepo {
	return &FollowRepo{q: q}
}

func (r *FollowRepo) Follow(ctx context.Context, follower, followee domain.UserID) error {
	if follower == followee {
		return domain.ErrSelfAction
	}
	_, err := r.q.Exec(ctx, queries.QueryFollow, int64(follower), int64(followee))
	return narrow(mapPgError(err), domain.ErrConflict, domain.ErrAlreadyFollowing)
}

func (r *FollowRepo) Unfollow(ctx context.Context, follower, followee domain.UserID) error {
	return execAffecting(ctx, r.q, domain.ErrNotFollowing, queries.QueryUnfollow, int64(follower), int64(followee))
}

func (r *FollowRepo) IsFollowing(ctx context.Context, follower, followee domain.UserID) (bool, error) {
	var ok bool
	if err := r.q.QueryRow(ctx, queries.QueryIsFollowing, int64(follower), int64(followee)).Scan(&ok); err != nil {
		return false, mapPgError(err)
	}
	return ok, nil
}

func (r *FollowRepo) Followers(ctx context.Context, id domain.UserID) ([]domain.UserSummary, error) {
	rows, err := r.q.Query(ctx, queries.QueryListFollowers, int64(id))
	if err != nil {
		return nil, mapPgError(err)
	}
	return scanSummaries(rows)
}

func (r *FollowRepo) Following(ctx context.Context, id domain.UserID) ([]domain.UserSummary, error) {
	rows, err := r.q.Query(ctx, queries.QueryListFollowing, int64(id))
	if err != nil {
		return nil, mapPgError(err)
	}
	return scanSummaries(rows)
}

func (r *FollowRepo) Counts(ctx context.Context, id domain.UserID) (int, int, error) {
	var followers, following int64
	if err := r.q.QueryRow(ctx, queries.QueryFollowCounts, int64(id)).Scan(&followers, &following); err != nil {
		return 0, 0, mapPgError(err)
	}
	return int(followers), int(following), nil
}

type PostRepo struct {
	q dbtx
}

func NewPostRepoFromPool(q dbtx) *PostRepo {
	return &PostRepo{q: q}
}

func (r *PostRepo) Create(ctx context.Context, p *domain.Post) error {
	var id int64
	err := r.q.QueryRow(ctx, queries.QueryCreatePost, int64(p.AuthorID), p.Content, toNullStringPtr(p.ImageURL), p.CreatedAt).Scan(&id)
	if err != nil {
		return mapPgError(err)
	}
	p.ID = domain.PostID(id)
	return nil
}

func (r *PostRepo) Get(ctx context.Context, id domain.PostID) (*domain.Post, error) {
	p, err := scanPost(r.q.QueryRow(ctx, queries.QueryGetPost, int64(id)))
	if err != nil {
		return nil, notFoundAs(err, domain.ErrPostNotFound)
	}
	return p, nil
}

func (r *PostRepo) Update(ctx context.Context, id domain.PostID, patch domain.PostPatch) error {
	var b setBuilder
	if patch.Content != nil {
		b.add("content", strings.TrimSpace(*patch.Content))
	}
	if patch.ImageURL != nil {
		b.add("image_url", toNullStringPtr(patch.ImageURL))
	}
	if b.empty() {
		return nil
	}
	b.add("updated_at", time.Now().UTC())

	sql, args := b.build("posts", "id", int64(id))
	return execAffecting(ctx, r.q, domain.ErrPostNotFound, sql, args...)
}

func (r *PostRepo) Delete(ctx context.Context, id domain.PostID) error {
	return execAffecting(ctx, r.q, domain.ErrPostNotFound, queries.QueryDeletePost, int64(id))
}

func (r *PostRepo) ListByAuthor(ctx context.Context, author domain.UserID, page domain.Page) ([]domain.Post, error) {
	rows, err := r.q.Query(ctx, queries.QueryListPostsByUser, int64(author), page.Limit(), page.Offset())
	if err != nil {
		return nil, mapPgError(err)
	}
	return scanPosts(rows)
}

func (r *PostRepo) Feed(ctx context.Context, userID domain.UserID, page domain.Page) ([]domain.Post, error) {
	rows, err := r.q.Query(ctx, queries.QueryFeed, int64(userID), page.Limit(), page.Offset())
	if err != nil {
		return nil, mapPgError(err)
	}
	return scanPosts(rows)
}

func (r *PostRepo) Search(ctx context.Context, query string, limit int) ([]domain.Post, error) {
	rows, err := r.q.Query(ctx, queries.QuerySearchPosts, escapeLike(strings.TrimSpace(query)), limit)
	if err != nil {
		return nil, mapPgError(err)
	}
	return scanPosts(rows)
}

func (r *PostRepo) Like(ctx context.Context, userID domain.UserID, postID domain.PostID) error {
	_, err := r.q.Exec(ctx, queries.QueryLike, int64(userID), int64(postID))
	return engagementErr(err, domain.ErrAlreadyLiked)
}

func (r *PostRepo) Unlike(ctx context.Context, userID domain.UserID, postID domain.PostID) error {
	return execAffecting(ctx, r.q, domain.ErrNotLiked, queries.QueryUnlike, int64(userID), int64(postID))
}

func (r *PostRepo) AddComment(ctx context.Context, c *domain.Comment) error {
	err := r.q.QueryRow(ctx, queries.QueryCreateComment, int64(c.PostID), int64(c.AuthorID), c.Content, c.CreatedAt).Scan(&c.ID)
	return narrow(mapPgError(err), domain.ErrNotFound, domain.ErrPostNotFound)
}

func (r *PostRepo) Comments(ctx context.Context, postID domain.PostID) ([]domain.Comment, error) {
	rows, err := r.q.Query(ctx, queries.QueryListComments, int64(postID))
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	out := make([]domain.Comment, 0, 8)
	for rows.Next() {
		var (
			c           domain.Comment
			pid, author int64
		)
		if err := rows.Scan(&c.ID, &pid, &author, &c.Author, &c.Content, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.PostID = domain.PostID(pid)
		c.AuthorID = domain.UserID(author)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostRepo) React(ctx context.Context, userID domain.UserID, postID domain.PostID, reaction string) error {
	_, err := r.q.Exec(ctx, queries.QueryReact, int64(userID), int64(postID), reaction)
	return engagementErr(err, domain.ErrAlreadyReacted)
}

func (r *PostRepo) Unreact(ctx context.Context, userID domain.UserID, postID domain.PostID) error {
	return execAffecting(ctx, r.q, domain.ErrNoReaction, queries.QueryUnreact, int64(userID), int64(postID))
}

func (r *PostRepo) Repost(ctx context.Context, userID domain.UserID, postID domain.PostID) error {
	_, err := r.q.Exec(ctx, queries.QueryRepost, int64(userID), int64(postID))
	return engagementErr(err, domain.ErrAlreadyReposted)
}

func (r *PostRepo) Unrepost(ctx context.Context, userID domain.UserID, postID domain.PostID) error {
	return execAffecting(ctx, r.q, domain.ErrNotReposted, queries.QueryUnrepost, int64(userID), int64(postID))
}

// engagementErr: уникальность (user, post) → конкретный Conflict, отсутствующий пост → NotFound поста.
func engagementErr(err error, conflict error) error {
	err = mapPgError(err)
	err = narrow(err, domain.ErrConflict, conflict)
	return narrow(err, domain.ErrNotFound, domain.ErrPostNotFound)
}

// execAffecting выполняет запрос и возвращает notFound, если ни одна строка не затронута.
func execAffecting(ctx context.Context, q querier, notFound error, sql string, args ...any) error {
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}

func scanPosts(rows pgx.Rows) ([]domain.Post, error) {
	defer rows.Close()

	out := make([]domain.Post, 0, 16)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanPost(row pgx.Row) (*domain.Post, error) {
	var (
		p                        domain.Post
		id, author               int64
		likes, comments, reposts int64
	)
	err := row.Scan(&id, &author, &p.Author, &p.Content, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt, &likes, &comments, &reposts)
	if err != nil {
		return nil, err
	}
	p.ID = domain.PostID(id)
	p.AuthorID = domain.UserID(author)
	p.Likes, p.Comments, p.Reposts = int(likes), int(comments), int(reposts)
	return &p, nil
}
