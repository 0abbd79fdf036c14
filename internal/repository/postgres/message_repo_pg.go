package postgres

import (
	"context"
	"strings"

	"github.com/cwrk-planet/messenger/internal/domain"
	"github.com/cwrk-planet/messenger/internal/repository/queries"

	"github.com/jackc/pgx/v5"
)

type MessageRepo struct {
	q dbtx
}

func NewMessageRepoFromPool(q dbtx) *MessageRepo {
	return &MessageRepo{q: q}
}

func NewMessageRepoFromTx(tx pgx.Tx) *MessageRepo {
	return &MessageRepo{q: tx}
}

func (r *MessageRepo) Create(ctx context.Context, m *domain.Message) error {
	var parent *int64
	if m.ParentID != nil {
		v := int64(*m.ParentID)
		parent = &v
	}

	var id int64
	err := r.q.QueryRow(
		ctx,
		queries.QueryCreateMessage,
		int16(m.Conversation.Kind),
		m.Conversation.ID,
		int64(m.SenderID),
		m.Body,
		string(m.Kind),
		parent,
		toNullStringPtr(m.MediaPath),
		int16(m.Status),
		m.CreatedAt,
	).Scan(&id)
	if err != nil {
		return narrow(mapPgError(err), domain.ErrNotFound, domain.ErrMessageNotFound)
	}

	m.ID = domain.MessageID(id)
	return nil
}

func (r *MessageRepo) Get(ctx context.Context, id domain.MessageID) (*domain.Message, error) {
	m, err := scanMessage(r.q.QueryRow(ctx, queries.QueryGetMessage, int64(id)))
	if err != nil {
		return nil, notFoundAs(err, domain.ErrMessageNotFound)
	}
	return m, nil
}

func (r *MessageRepo) AdvanceStatus(ctx context.Context, id domain.MessageID, to domain.Status) (bool, error) {
	tag, err := r.q.Exec(ctx, queries.QueryAdvanceMessageStatus, int64(id), int16(to))
	if err != nil {
		return false, mapPgError(err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	var exists bool
	if err := r.q.QueryRow(ctx, queries.QueryMessageExists, int64(id)).Scan(&exists); err != nil {
		return false, mapPgError(err)
	}
	if !exists {
		return false, domain.ErrMessageNotFound
	}
	return false, nil
}

func (r *MessageRepo) MarkRead(ctx context.Context, conv domain.Conversation, reader domain.UserID) ([]domain.MessageID, error) {
	rows, err := r.q.Query(ctx, queries.QueryMarkConversationRead, int16(conv.Kind), conv.ID, int64(reader))
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var ids []domain.MessageID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, domain.MessageID(id))
	}
	return ids, rows.Err()
}

func (r *MessageRepo) UpdateBody(ctx context.Context, id domain.MessageID, body string) error {
	tag, err := r.q.Exec(ctx, queries.QueryUpdateMessageBody, int64(id), body)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}

// Delete заодно снимает закреп, если сообщение было закреплено в группе.
func (r *MessageRepo) Delete(ctx context.Context, id domain.MessageID) error {
	return withTx(ctx, r.q, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, queries.QueryUnpinMessage, int64(id)); err != nil {
			return mapPgError(err)
		}
		tag, err := tx.Exec(ctx, queries.QueryDeleteMessage, int64(id))
		if err != nil {
			return mapPgError(err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrMessageNotFound
		}
		return nil
	})
}

func (r *MessageRepo) History(ctx context.Context, conv domain.Conversation, page domain.Page) ([]domain.Message, error) {
	rows, err := r.q.Query(ctx, queries.QueryMessageHistory, int16(conv.Kind), conv.ID, page.Limit(), page.Offset())
	if err != nil {
		return nil, mapPgError(err)
	}
	return scanMessages(rows)
}

func (r *MessageRepo) Search(ctx context.Context, conv domain.Conversation, query string, limit int) ([]domain.Message, error) {
	rows, err := r.q.Query(ctx, queries.QuerySearchMessages, int16(conv.Kind), conv.ID, escapeLike(strings.TrimSpace(query)), limit)
	if err != nil {
		return nil, mapPgError(err)
	}
	return scanMessages(rows)
}

func scanMessages(rows pgx.Rows) ([]domain.Message, error) {
	defer rows.Close()

	out := make([]domain.Message, 0, 16)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func scanMessage(row pgx.Row) (*domain.Message, error) {
	var (
		m        domain.Message
		id       int64
		convKind int16
		sender   int64
		kind     string
		parent   *int64
		status   int16
	)
	err := row.Scan(
		&id,
		&convKind,
		&m.Conversation.ID,
		&sender,
		&m.Sender,
		&m.Body,
		&kind,
		&parent,
		&m.MediaPath,
		&status,
		&m.Edited,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.ID = domain.MessageID(id)
	m.Conversation.Kind = domain.RoomKind(convKind)
	m.SenderID = domain.UserID(sender)
	m.Kind = domain.MessageKind(kind)
	if parent != nil {
		p := domain.MessageID(*parent)
		m.ParentID = &p
	}
	m.Status = domain.Status(status)
	return &m, nil
}

func toNullStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	if s == "" {
		return nil
	}

	return &s
}
