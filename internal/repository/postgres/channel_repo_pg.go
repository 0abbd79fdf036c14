package postgres

import (
	"context"
	"time"

	"github.com/cwrk-planet/messenger/internal/domain"
	"github.com/cwrk-planet/messenger/internal/repository/queries"

	"github.com/jackc/pgx/v5"
)

type ChannelRepo struct {
	q dbtx
}

func NewChannelRepoFromPool(q dbtx) *ChannelRepo {
	return &ChannelRepo{q: q}
}

func NewChannelRepoFromTx(tx pgx.Tx) *ChannelRepo {
	return &ChannelRepo{q: tx}
}

// Create: канал, три роли и создатель-Admin одной транзакцией:
// канал без роли Admin не может остаться в базе.
func (r *ChannelRepo) Create(ctx context.Context, ch *domain.Channel) error {
	return withTx(ctx, r.q, func(tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx, queries.QueryCreateChannel, ch.Name, ch.Description, int64(ch.CreatorID), ch.CreatedAt).Scan(&id)
		if err != nil {
			return narrow(mapPgError(err), domain.ErrConflict, domain.ErrChannelExists)
		}

		for _, role := range domain.DefaultRoles() {
			var roleID int64
			if err := tx.QueryRow(ctx, queries.QueryCreateChannelRole, id, string(role), role.PermissionString()).Scan(&roleID); err != nil {
				return mapPgError(err)
			}
		}

		tag, err := tx.Exec(ctx, queries.QueryAddChannelMember, id, int64(ch.CreatorID), string(domain.RoleAdmin), ch.CreatedAt)
		if err != nil {
			return mapPgError(err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrChannelNotFound
		}

		ch.ID = id
		return nil
	})
}

func (r *ChannelRepo) GetByName(ctx context.Context, name string) (*domain.Channel, error) {
	return r.getOne(ctx, queries.QueryGetChannelByName, name)
}

func (r *ChannelRepo) GetByID(ctx context.Context, id int64) (*domain.Channel, error) {
	return r.getOne(ctx, queries.QueryGetChannelByID, id)
}

func (r *ChannelRepo) getOne(ctx context.Context, sql string, arg any) (*domain.Channel, error) {
	var (
		ch      domain.Channel
		creator int64
	)
	if err := r.q.QueryRow(ctx, sql, arg).Scan(&ch.ID, &ch.Name, &ch.Description, &creator, &ch.CreatedAt); err != nil {
		return nil, notFoundAs(err, domain.ErrChannelNotFound)
	}
	ch.CreatorID = domain.UserID(creator)
	return &ch, nil
}

func (r *ChannelRepo) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, r.q, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, queries.QueryDeleteChannelMessages, id); err != nil {
			return mapPgError(err)
		}
		tag, err := tx.Exec(ctx, queries.QueryDeleteChannel, id)
		if err != nil {
			return mapPgError(err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrChannelNotFound
		}
		return nil
	})
}

func (r *ChannelRepo) Member(ctx context.Context, channelID int64, userID domain.UserID) (*domain.ChannelMember, error) {
	return memberOf(ctx, r.q, channelID, userID)
}

func memberOf(ctx context.Context, q querier, channelID int64, userID domain.UserID) (*domain.ChannelMember, error) {
	var m domain.ChannelMember
	if err := scanMember(q.QueryRow(ctx, queries.QueryGetChannelMember, channelID, int64(userID)), &m); err != nil {
		return nil, notFoundAs(err, domain.ErrNotMember)
	}
	return &m, nil
}

func (r *ChannelRepo) Members(ctx context.Context, channelID int64) ([]domain.ChannelMember, error) {
	rows, err := r.q.Query(ctx, queries.QueryChannelMembers, channelID)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	out := make([]domain.ChannelMember, 0, 8)
	for rows.Next() {
		var m domain.ChannelMember
		if err := scanMember(rows, &m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMember(row pgx.Row, m *domain.ChannelMember) error {
	var (
		userID int64
		role   string
	)
	if err := row.Scan(&m.ChannelID, &userID, &m.Username, &role, &m.JoinedAt); err != nil {
		return err
	}
	m.UserID = domain.UserID(userID)
	m.Role = domain.Role(role)
	return nil
}

// SetRole блокирует строку канала, чтобы две параллельные смены ролей
// не разжаловали двух последних админов одновременно.
func (r *ChannelRepo) SetRole(ctx context.Context, channelID int64, userID domain.UserID, role domain.Role) error {
	return withTx(ctx, r.q, func(tx pgx.Tx) error {
		cur, err := lockAndGetMember(ctx, tx, channelID, userID)
		if err != nil {
			return err
		}
		if cur.Role == role {
			return nil
		}
		if cur.Role == domain.RoleAdmin {
			if err := ensureAnotherAdmin(ctx, tx, channelID); err != nil {
				return err
			}
		}

		tag, err := tx.Exec(ctx, queries.QuerySetChannelMemberRole, channelID, int64(userID), string(role))
		if err != nil {
			return mapPgError(err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotMember
		}
		return nil
	})
}

func (r *ChannelRepo) RemoveMember(ctx context.Context, channelID int64, userID domain.UserID) error {
	return withTx(ctx, r.q, func(tx pgx.Tx) error {
		cur, err := lockAndGetMember(ctx, tx, channelID, userID)
		if err != nil {
			return err
		}
		if cur.Role == domain.RoleAdmin {
			if err := ensureAnotherAdmin(ctx, tx, channelID); err != nil {
				return err
			}
		}

		if _, err := tx.Exec(ctx, queries.QueryRemoveChannelMember, channelID, int64(userID)); err != nil {
			return mapPgError(err)
		}
		return nil
	})
}

func lockAndGetMember(ctx context.Context, tx pgx.Tx, channelID int64, userID domain.UserID) (*domain.ChannelMember, error) {
	var id int64
	if err := tx.QueryRow(ctx, queries.QueryLockChannel, channelID).Scan(&id); err != nil {
		return nil, notFoundAs(err, domain.ErrChannelNotFound)
	}
	return memberOf(ctx, tx, channelID, userID)
}

func ensureAnotherAdmin(ctx context.Context, tx pgx.Tx, channelID int64) error {
	var admins int64
	if err := tx.QueryRow(ctx, queries.QueryCountChannelRole, channelID, string(domain.RoleAdmin)).Scan(&admins); err != nil {
		return mapPgError(err)
	}
	if admins <= 1 {
		return domain.ErrLastAdmin
	}
	return nil
}

func (r *ChannelRepo) ListForUser(ctx context.Context, userID domain.UserID) ([]domain.ChatListItem, error) {
	rows, err := r.q.Query(ctx, queries.QueryListChannelsForUser, int64(userID))
	if err != nil {
		return nil, mapPgError(err)
	}
	return scanNamedListItems(rows, domain.RoomChannel)
}

func (r *ChannelRepo) CreateInvite(ctx context.Context, inv *domain.Invite) error {
	var maxUses *int32
	if inv.MaxUses != nil {
		v := int32(*inv.MaxUses)
		maxUses = &v
	}
	err := r.q.QueryRow(ctx, queries.QueryCreateInvite,
		inv.ChannelID,
		inv.Code,
		int64(inv.CreatedBy),
		inv.ExpiresAt,
		maxUses,
		inv.CreatedAt,
	).Scan(&inv.ID)
	return mapPgError(err)
}

func (r *ChannelRepo) ListInvites(ctx context.Context, channelID int64) ([]domain.Invite, error) {
	rows, err := r.q.Query(ctx, queries.QueryListInvites, channelID)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	out := make([]domain.Invite, 0, 4)
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

func scanInvite(row pgx.Row) (*domain.Invite, error) {
	var (
		inv       domain.Invite
		createdBy int64
		expiresAt *time.Time
		maxUses   *int32
		uses      int32
	)
	if err := row.Scan(&inv.ID, &inv.ChannelID, &inv.Code, &createdBy, &expiresAt, &maxUses, &uses, &inv.CreatedAt); err != nil {
		return nil, err
	}
	inv.CreatedBy = domain.UserID(createdBy)
	inv.ExpiresAt = expiresAt
	if maxUses != nil {
		v := int(*maxUses)
		inv.MaxUses = &v
	}
	inv.Uses = int(uses)
	return &inv, nil
}

func (r *ChannelRepo) DeleteInvite(ctx context.Context, channelID, inviteID int64) error {
	tag, err := r.q.Exec(ctx, queries.QueryDeleteInvite, channelID, inviteID)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInviteNotFound
	}
	return nil
}

// RedeemInvite: строка инвайта под FOR UPDATE, поэтому uses не превысит max_uses
// даже при параллельных погашениях.
func (r *ChannelRepo) RedeemInvite(ctx context.Context, code string, userID domain.UserID, now time.Time) (*domain.Channel, error) {
	var ch *domain.Channel
	err := withTx(ctx, r.q, func(tx pgx.Tx) error {
		inv, err := scanInvite(tx.QueryRow(ctx, queries.QueryLockInviteByCode, code))
		if err != nil {
			return notFoundAs(err, domain.ErrInviteNotFound)
		}
		if err := inv.CheckRedeemable(now); err != nil {
			return err
		}

		var member bool
		if err := tx.QueryRow(ctx, queries.QueryIsChannelMember, inv.ChannelID, int64(userID)).Scan(&member); err != nil {
			return mapPgError(err)
		}
		if member {
			return domain.ErrAlreadyMember
		}

		if _, err := tx.Exec(ctx, queries.QueryAddChannelMember, inv.ChannelID, int64(userID), string(domain.RoleMember), now); err != nil {
			return narrow(mapPgError(err), domain.ErrConflict, domain.ErrAlreadyMember)
		}
		if _, err := tx.Exec(ctx, queries.QueryConsumeInvite, inv.ID); err != nil {
			return mapPgError(err)
		}

		ch, err = NewChannelRepoFromTx(tx).GetByID(ctx, inv.ChannelID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ch, nil
}
