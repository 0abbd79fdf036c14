package queries

const channelMemberSelect = `
		SELECT cm.channel_id, cm.user_id, u.username, r.role_name, cm.joined_at
		FROM channel_members cm
		JOIN channel_roles r ON r.id = cm.role_id
		JOIN users u ON u.id = cm.user_id
`

const inviteColumns = `id, channel_id, invite_code, created_by, expires_at, max_uses, uses, created_at`

const (
	QueryCreateChannel = `
		INSERT INTO channels (name, description, creator_id, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id;
	`
	QueryCreateChannelRole = `
		INSERT INTO channel_roles (channel_id, role_name, permissions)
		VALUES ($1, $2, $3)
		RETURNING id;
	`
	QueryAddChannelMember = `
		INSERT INTO channel_members (channel_id, user_id, role_id, joined_at)
		SELECT $1, $2, r.id, $4
		FROM channel_roles r
		WHERE r.channel_id = $1 AND r.role_name = $3;
	`
	QueryGetChannelByName = `
		SELECT id, name, description, creator_id, created_at
		FROM channels
		WHERE name = $1;
	`
	QueryGetChannelByID = `
		SELECT id, name, description, creator_id, created_at
		FROM channels
		WHERE id = $1;
	`
	QueryLockChannel           = `SELECT id FROM channels WHERE id = $1 FOR UPDATE;`
	QueryDeleteChannelMessages = `DELETE FROM messages WHERE conv_kind = 3 AND conv_id = $1;`
	QueryDeleteChannel         = `DELETE FROM channels WHERE id = $1;`

	QueryGetChannelMember = channelMemberSelect + `
		WHERE cm.channel_id = $1 AND cm.user_id = $2;
	`
	QueryChannelMembers = channelMemberSelect + `
		WHERE cm.channel_id = $1
		ORDER BY cm.joined_at, u.username;
	`
	QueryCountChannelRole = `
		SELECT COUNT(*)
		FROM channel_members cm
		JOIN channel_roles r ON r.id = cm.role_id
		WHERE cm.channel_id = $1 AND r.role_name = $2;
	`
	QuerySetChannelMemberRole = `
		UPDATE channel_members
		SET role_id = (SELECT id FROM channel_roles WHERE channel_id = $1 AND role_name = $3)
		WHERE channel_id = $1 AND user_id = $2;
	`
	QueryRemoveChannelMember = `DELETE FROM channel_members WHERE channel_id = $1 AND user_id = $2;`
	QueryIsChannelMember     = `SELECT EXISTS(SELECT 1 FROM channel_members WHERE channel_id = $1 AND user_id = $2);`

	QueryListChannelsForUser = `
		SELECT c.id, c.name, lm.body, lm.created_at,
		       (SELECT COUNT(*) FROM messages m
		        WHERE m.conv_kind = 3 AND m.conv_id = c.id AND m.sender_id <> $1 AND m.status < 2)
		FROM channels c
		JOIN channel_members cm ON cm.channel_id = c.id AND cm.user_id = $1
		LEFT JOIN LATERAL (
			SELECT m.body, m.created_at
			FROM messages m
			WHERE m.conv_kind = 3 AND m.conv_id = c.id
			ORDER BY m.created_at DESC, m.id DESC
			LIMIT 1
		) lm ON TRUE;
	`

	QueryCreateInvite = `
		INSERT INTO channel_invites (channel_id, invite_code, created_by, expires_at, max_uses, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id;
	`
	QueryListInvites = `
		SELECT ` + inviteColumns + `
		FROM channel_invites
		WHERE channel_id = $1
		ORDER BY created_at DESC, id DESC;
	`
	QueryDeleteInvite     = `DELETE FROM channel_invites WHERE channel_id = $1 AND id = $2;`
	QueryLockInviteByCode = `
		SELECT ` + inviteColumns + `
		FROM channel_invites
		WHERE invite_code = $1
		FOR UPDATE;
	`
	QueryConsumeInvite = `UPDATE channel_invites SET uses = uses + 1 WHERE id = $1;`
)
