package postgres

import (
	"context"
	"time"

	"github.com/cwrk-planet/messenger/internal/domain"
	"github.com/cwrk-planet/messenger/internal/repository/queries"

	"github.com/jackc/pgx/v5"
)

type ChatRepo struct {
	q dbtx
}

func NewChatRepoFromPool(q dbtx) *ChatRepo {
	return &ChatRepo{q: q}
}

func NewChatRepoFromTx(tx pgx.Tx) *ChatRepo {
	return &ChatRepo{q: tx}
}

// GetOrCreate: одна инструкция upsert, пара всегда каноническая (user1 < user2).
func (r *ChatRepo) GetOrCreate(ctx context.Context, a, b domain.UserID) (*domain.Chat, error) {
	if a == b {
		return nil, domain.ErrSelfAction
	}
	u1, u2 := domain.CanonicalPair(a, b)
	return r.scanOne(r.q.QueryRow(ctx, queries.QueryGetOrCreateChat, int64(u1), int64(u2)))
}

func (r *ChatRepo) Find(ctx context.Context, a, b domain.UserID) (*domain.Chat, error) {
	u1, u2 := domain.CanonicalPair(a, b)
	return r.scanOne(r.q.QueryRow(ctx, queries.QueryFindChat, int64(u1), int64(u2)))
}

func (r *ChatRepo) GetByID(ctx context.Context, id int64) (*domain.Chat, error) {
	return r.scanOne(r.q.QueryRow(ctx, queries.QueryGetChatByID, id))
}

func (r *ChatRepo) scanOne(row pgx.Row) (*domain.Chat, error) {
	var (
		c      domain.Chat
		u1, u2 int64
	)
	if err := row.Scan(&c.ID, &u1, &u2, &c.CreatedAt); err != nil {
		return nil, notFoundAs(err, domain.ErrChatNotFound)
	}
	c.User1ID = domain.UserID(u1)
	c.User2ID = domain.UserID(u2)
	return &c, nil
}

func (r *ChatRepo) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, r.q, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, queries.QueryDeleteChatMessages, id); err != nil {
			return mapPgError(err)
		}
		tag, err := tx.Exec(ctx, queries.QueryDeleteChat, id)
		if err != nil {
			return mapPgError(err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrChatNotFound
		}
		return nil
	})
}

func (r *ChatRepo) ListForUser(ctx context.Context, userID domain.UserID) ([]domain.ChatListItem, error) {
	rows, err := r.q.Query(ctx, queries.QueryListChatsForUser, int64(userID))
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	out := make([]domain.ChatListItem, 0, 8)
	for rows.Next() {
		var (
			id          int64
			me, peer    string
			lastBody    *string
			lastTime    *time.Time
			unreadCount int64
		)
		if err := rows.Scan(&id, &me, &peer, &lastBody, &lastTime, &unreadCount); err != nil {
			return nil, err
		}
		out = append(out, domain.ChatListItem{
			Kind:        domain.RoomDirect,
			Room:        domain.DirectRoom(me, peer).ID(),
			ID:          id,
			Title:       peer,
			LastMessage: lastBody,
			LastTime:    lastTime,
			UnreadCount: int(unreadCount),
		})
	}

	return out, rows.Err()
}
