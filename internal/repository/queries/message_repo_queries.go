package queries

const messageSelect = `
		SELECT m.id, m.conv_kind, m.conv_id, m.sender_id, u.username, m.body, m.kind,
		       m.parent_id, m.media_path, m.status, m.edited, m.created_at
		FROM messages m
		JOIN users u ON u.id = m.sender_id
`

const (
	QueryCreateMessage = `
		INSERT INTO messages (conv_kind, conv_id, sender_id, body, kind, parent_id, media_path, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id;
	`
	QueryGetMessage = messageSelect + `
		WHERE m.id = $1;
	`
	// status только растёт: sent(0) < delivered(1) < read(2)
	QueryAdvanceMessageStatus = `UPDATE messages SET status = $2 WHERE id = $1 AND status < $2;`
	QueryMessageExists        = `SELECT EXISTS(SELECT 1 FROM messages WHERE id = $1);`
	QueryMarkConversationRead = `
		UPDATE messages
		SET status = 2
		WHERE conv_kind = $1 AND conv_id = $2 AND sender_id <> $3 AND status < 2
		RETURNING id;
	`
	QueryUpdateMessageBody = `UPDATE messages SET body = $2, edited = TRUE WHERE id = $1;`
	QueryUnpinMessage      = `UPDATE groups SET pinned_msg_id = NULL WHERE pinned_msg_id = $1;`
	QueryDeleteMessage     = `DELETE FROM messages WHERE id = $1;`
	QueryMessageHistory    = messageSelect + `
		WHERE m.conv_kind = $1 AND m.conv_id = $2
		ORDER BY m.created_at ASC, m.id ASC
		LIMIT $3 OFFSET $4;
	`
	QuerySearchMessages = messageSelect + `
		WHERE m.conv_kind = $1 AND m.conv_id = $2 AND m.body ILIKE $3 ESCAPE '\'
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT $4;
	`
)
