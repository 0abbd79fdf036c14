package queries

const (
	QueryFollow = `
		INSERT INTO subscriptions (follower_id, following_id)
		VALUES ($1, $2);
	`
	QueryUnfollow      = `DELETE FROM subscriptions WHERE follower_id = $1 AND following_id = $2;`
	QueryIsFollowing   = `SELECT EXISTS(SELECT 1 FROM subscriptions WHERE follower_id = $1 AND following_id = $2);`
	QueryListFollowers = `
		SELECT u.id, u.username
		FROM subscriptions s
		JOIN users u ON u.id = s.follower_id
		WHERE s.following_id = $1
		ORDER BY s.created_at DESC;
	`
	QueryListFollowing = `
		SELECT u.id, u.username
		FROM subscriptions s
		JOIN users u ON u.id = s.following_id
		WHERE s.follower_id = $1
		ORDER BY s.created_at DESC;
	`
	QueryFollowCounts = `
		SELECT (SELECT COUNT(*) FROM subscriptions WHERE following_id = $1),
		       (SELECT COUNT(*) FROM subscriptions WHERE follower_id = $1);
	`
)

const postSelect = `
		SELECT p.id, p.user_id, u.username, p.content, p.image_url, p.created_at, p.updated_at,
		       (SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id),
		       (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id),
		       (SELECT COUNT(*) FROM reposts r WHERE r.post_id = p.id)
		FROM posts p
		JOIN users u ON u.id = p.user_id
`

const (
	QueryCreatePost = `
		INSERT INTO posts (user_id, content, image_url, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id;
	`
	QueryGetPost = postSelect + `
		WHERE p.id = $1;
	`
	QueryDeletePost     = `DELETE FROM posts WHERE id = $1;`
	QueryListPostsByUser = postSelect + `
		WHERE p.user_id = $1
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $2 OFFSET $3;
	`
	QueryFeed = postSelect + `
		WHERE p.user_id = $1
		   OR p.user_id IN (SELECT following_id FROM subscriptions WHERE follower_id = $1)
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $2 OFFSET $3;
	`
	QuerySearchPosts = postSelect + `
		WHERE p.content ILIKE $1 ESCAPE '\'
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $2;
	`

	QueryLike   = `INSERT INTO likes (user_id, post_id) VALUES ($1, $2);`
	QueryUnlike = `DELETE FROM likes WHERE user_id = $1 AND post_id = $2;`

	QueryCreateComment = `
		INSERT INTO comments (post_id, user_id, content, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id;
	`
	QueryListComments = `
		SELECT c.id, c.post_id, c.user_id, u.username, c.content, c.created_at
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.post_id = $1
		ORDER BY c.created_at ASC, c.id ASC;
	`

	QueryReact   = `INSERT INTO reactions (user_id, post_id, reaction) VALUES ($1, $2, $3);`
	QueryUnreact = `DELETE FROM reactions WHERE user_id = $1 AND post_id = $2;`

	QueryRepost   = `INSERT INTO reposts (user_id, post_id) VALUES ($1, $2);`
	QueryUnrepost = `DELETE FROM reposts WHERE user_id = $1 AND post_id = $2;`
)
