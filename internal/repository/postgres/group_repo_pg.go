package postgres

import (
	"context"
	"slices"
	"time"

	"github.com/cwrk-planet/messenger/internal/domain"
	"github.com/cwrk-planet/messenger/internal/repository/queries"

	"github.com/jackc/pgx/v5"
)

type GroupRepo struct {
	q dbtx
}

func NewGroupRepoFromPool(q dbtx) *GroupRepo {
	return &GroupRepo{q: q}
}

func NewGroupRepoFromTx(tx pgx.Tx) *GroupRepo {
	return &GroupRepo{q: tx}
}

func (r *GroupRepo) Create(ctx context.Context, g *domain.Group, members []domain.UserID) error {
	ids := make([]int64, 0, len(members)+1)
	ids = append(ids, int64(g.CreatorID))
	for _, m := range members {
		if !slices.Contains(ids, int64(m)) {
			ids = append(ids, int64(m))
		}
	}

	return withTx(ctx, r.q, func(tx pgx.Tx) error {
		var id int64
		if err := tx.QueryRow(ctx, queries.QueryCreateGroup, g.Name, int64(g.CreatorID), g.CreatedAt).Scan(&id); err != nil {
			return narrow(mapPgError(err), domain.ErrConflict, domain.ErrGroupExists)
		}
		if _, err := tx.Exec(ctx, queries.QueryAddGroupMembers, id, ids); err != nil {
			return mapPgError(err)
		}
		g.ID = id
		return nil
	})
}

func (r *GroupRepo) GetByName(ctx context.Context, name string) (*domain.Group, error) {
	var (
		g       domain.Group
		creator int64
		pinned  *int64
	)
	err := r.q.QueryRow(ctx, queries.QueryGetGroupByName, name).Scan(&g.ID, &g.Name, &creator, &pinned, &g.CreatedAt)
	if err != nil {
		return nil, notFoundAs(err, domain.ErrGroupNotFound)
	}
	g.CreatorID = domain.UserID(creator)
	if pinned != nil {
		id := domain.MessageID(*pinned)
		g.PinnedMsgID = &id
	}
	return &g, nil
}

func (r *GroupRepo) IsMember(ctx context.Context, groupID int64, userID domain.UserID) (bool, error) {
	var ok bool
	if err := r.q.QueryRow(ctx, queries.QueryIsGroupMember, groupID, int64(userID)).Scan(&ok); err != nil {
		return false, mapPgError(err)
	}
	return ok, nil
}

func (r *GroupRepo) Members(ctx context.Context, groupID int64) ([]domain.UserSummary, error) {
	rows, err := r.q.Query(ctx, queries.QueryGroupMembers, groupID)
	if err != nil {
		return nil, mapPgError(err)
	}
	return scanSummaries(rows)
}

func (r *GroupRepo) ListForUser(ctx context.Context, userID domain.UserID) ([]domain.ChatListItem, error) {
	rows, err := r.q.Query(ctx, queries.QueryListGroupsForUser, int64(userID))
	if err != nil {
		return nil, mapPgError(err)
	}
	return scanNamedListItems(rows, domain.RoomGroup)
}

func (r *GroupRepo) SetPinned(ctx context.Context, groupID int64, msgID *domain.MessageID) error {
	var arg *int64
	if msgID != nil {
		v := int64(*msgID)
		arg = &v
	}
	tag, err := r.q.Exec(ctx, queries.QuerySetGroupPinned, groupID, arg)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrGroupNotFound
	}
	return nil
}

func (r *GroupRepo) Delete(ctx context.Context, groupID int64) error {
	return withTx(ctx, r.q, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, queries.QueryDeleteGroupMessages, groupID); err != nil {
			return mapPgError(err)
		}
		tag, err := tx.Exec(ctx, queries.QueryDeleteGroup, groupID)
		if err != nil {
			return mapPgError(err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrGroupNotFound
		}
		return nil
	})
}

// scanNamedListItems: общий скан списка групп/каналов: id, name, last body, last time, unread.
func scanNamedListItems(rows pgx.Rows, kind domain.RoomKind) ([]domain.ChatListItem, error) {
	defer rows.Close()

	out := make([]domain.ChatListItem, 0, 8)
	for rows.Next() {
		var (
			id       int64
			name     string
			lastBody *string
			lastTime *time.Time
			unread   int64
		)
		if err := rows.Scan(&id, &name, &lastBody, &lastTime, &unread); err != nil {
			return nil, err
		}
		room := domain.GroupRoom(name)
		if kind == domain.RoomChannel {
			room = domain.ChannelRoom(name)
		}
		out = append(out, domain.ChatListItem{
			Kind:        kind,
			Room:        room.ID(),
			ID:          id,
			Title:       name,
			LastMessage: lastBody,
			LastTime:    lastTime,
			UnreadCount: int(unread),
		})
	}

	return out, rows.Err()
}
