package queries

const (
	QueryCreateGroup = `
		INSERT INTO groups (name, creator_id, created_at)
		VALUES ($1, $2, $3)
		RETURNING id;
	`
	QueryAddGroupMembers = `
		INSERT INTO group_members (group_id, user_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING;
	`
	QueryGetGroupByName = `
		SELECT id, name, creator_id, pinned_msg_id, created_at
		FROM groups
		WHERE name = $1;
	`
	QueryIsGroupMember = `SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2);`
	QueryGroupMembers  = `
		SELECT u.id, u.username
		FROM group_members gm
		JOIN users u ON u.id = gm.user_id
		WHERE gm.group_id = $1
		ORDER BY gm.joined_at, u.username;
	`
	QuerySetGroupPinned      = `UPDATE groups SET pinned_msg_id = $2 WHERE id = $1;`
	QueryDeleteGroupMessages = `DELETE FROM messages WHERE conv_kind = 2 AND conv_id = $1;`
	QueryDeleteGroup         = `DELETE FROM groups WHERE id = $1;`

	QueryListGroupsForUser = `
		SELECT g.id, g.name, lm.body, lm.created_at,
		       (SELECT COUNT(*) FROM messages m
		        WHERE m.conv_kind = 2 AND m.conv_id = g.id AND m.sender_id <> $1 AND m.status < 2)
		FROM groups g
		JOIN group_members gm ON gm.group_id = g.id AND gm.user_id = $1
		LEFT JOIN LATERAL (
			SELECT m.body, m.created_at
			FROM messages m
			WHERE m.conv_kind = 2 AND m.conv_id = g.id
			ORDER BY m.created_at DESC, m.id DESC
			LIMIT 1
		) lm ON TRUE;
	`
)
