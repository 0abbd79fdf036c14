package queries

const (
	// DO UPDATE нужен, чтобы RETURNING отдал строку и при конфликте
	QueryGetOrCreateChat = `
		INSERT INTO chats (user1_id, user2_id)
		VALUES ($1, $2)
		ON CONFLICT (user1_id, user2_id) DO UPDATE SET user1_id = EXCLUDED.user1_id
		RETURNING id, user1_id, user2_id, created_at;
	`
	QueryFindChat = `
		SELECT id, user1_id, user2_id, created_at
		FROM chats
		WHERE user1_id = $1 AND user2_id = $2;
	`
	QueryGetChatByID = `
		SELECT id, user1_id, user2_id, created_at
		FROM chats
		WHERE id = $1;
	`
	QueryDeleteChatMessages = `DELETE FROM messages WHERE conv_kind = 1 AND conv_id = $1;`
	QueryDeleteChat         = `DELETE FROM chats WHERE id = $1;`

	QueryListChatsForUser = `
		SELECT c.id, me.username, peer.username, lm.body, lm.created_at,
		       (SELECT COUNT(*) FROM messages m
		        WHERE m.conv_kind = 1 AND m.conv_id = c.id AND m.sender_id <> $1 AND m.status < 2)
		FROM chats c
		JOIN users me ON me.id = $1
		JOIN users peer ON peer.id = CASE WHEN c.user1_id = $1 THEN c.user2_id ELSE c.user1_id END
		LEFT JOIN LATERAL (
			SELECT m.body, m.created_at
			FROM messages m
			WHERE m.conv_kind = 1 AND m.conv_id = c.id
			ORDER BY m.created_at DESC, m.id DESC
			LIMIT 1
		) lm ON TRUE
		WHERE c.user1_id = $1 OR c.user2_id = $1;
	`
)
