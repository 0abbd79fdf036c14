package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/cwrk-planet/messenger/internal/domain"
	"github.com/cwrk-planet/messenger/internal/repository/queries"

	"github.com/jackc/pgx/v5"
)

type UserRepo struct {
	q dbtx
}

// NewUserRepoFromPool - конструктор от пула (*pgxpool.Pool)
func NewUserRepoFromPool(q dbtx) *UserRepo {
	return &UserRepo{q: q}
}

// NewUserRepoFromTx - конструктор от транзакции (pgx.Tx), удобно для составных операций
func NewUserRepoFromTx(tx pgx.Tx) *UserRepo {
	return &UserRepo{q: tx}
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) (domain.UserID, error) {
	var id int64
	err := r.q.QueryRow(
		ctx,
		queries.QueryCreateUser,
		u.Username,
		u.PasswordHash,
		u.Profile.City,
		u.Profile.BioShort,
		u.Profile.Country,
		u.Profile.Languages,
		u.Profile.BioFull,
		u.Profile.Hobbies,
		u.CreatedAt,
		u.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, narrow(mapPgError(err), domain.ErrConflict, domain.ErrUsernameTaken)
	}

	u.ID = domain.UserID(id)
	return u.ID, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	return r.getOne(ctx, queries.QueryGetUserByID, int64(id))
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, queries.QueryGetUserByUsername, strings.TrimSpace(username))
}

func (r *UserRepo) getOne(ctx context.Context, sql string, arg any) (*domain.User, error) {
	var (
		u         domain.User
		id        int64
		createdAt time.Time
		updatedAt time.Time
	)

	err := r.q.QueryRow(ctx, sql, arg).Scan(
		&id,
		&u.Username,
		&u.PasswordHash,
		&u.Profile.City,
		&u.Profile.BioShort,
		&u.Profile.Country,
		&u.Profile.Languages,
		&u.Profile.BioFull,
		&u.Profile.Hobbies,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, notFoundAs(err, domain.ErrUserNotFound)
	}

	u.ID = domain.UserID(id)
	u.CreatedAt = createdAt
	u.UpdatedAt = updatedAt
	return &u, nil
}

func (r *UserRepo) ListByUsernames(ctx context.Context, usernames []string) ([]domain.UserSummary, error) {
	if len(usernames) == 0 {
		return nil, nil
	}
	lowered := make([]string, 0, len(usernames))
	for _, u := range usernames {
		lowered = append(lowered, domain.NormalizeUsername(u))
	}

	rows, err := r.q.Query(ctx, queries.QueryListUsersByUsernames, lowered)
	if err != nil {
		return nil, mapPgError(err)
	}
	return scanSummaries(rows)
}

func (r *UserRepo) UpdateUsername(ctx context.Context, id domain.UserID, username string) error {
	tag, err := r.q.Exec(ctx, queries.QueryUpdateUsername, int64(id), username)
	if err != nil {
		return narrow(mapPgError(err), domain.ErrConflict, domain.ErrUsernameTaken)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

func (r *UserRepo) UpdatePasswordHash(ctx context.Context, id domain.UserID, hash string) error {
	tag, err := r.q.Exec(ctx, queries.QueryUpdatePasswordHash, int64(id), strings.TrimSpace(hash))
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

func (r *UserRepo) UpdateProfile(ctx context.Context, id domain.UserID, patch domain.ProfilePatch) error {
	var b setBuilder
	addText := func(col string, v *string) {
		if v != nil {
			b.add(col, strings.TrimSpace(*v))
		}
	}
	addText("city", patch.City)
	addText("bio_short", patch.BioShort)
	addText("country", patch.Country)
	addText("languages", patch.Languages)
	addText("bio_full", patch.BioFull)
	addText("hobbies", patch.Hobbies)

	if b.empty() {
		// Если ничего не передали, то updated at менять нет смысла
		return nil
	}
	b.add("updated_at", time.Now().UTC())

	sql, args := b.build("users", "id", int64(id))
	tag, err := r.q.Exec(ctx, sql, args...)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

func (r *UserRepo) Search(ctx context.Context, query string, exclude domain.UserID, limit int) ([]domain.UserSummary, error) {
	rows, err := r.q.Query(ctx, queries.QuerySearchUsers, escapeLike(strings.TrimSpace(query)), int64(exclude), limit)
	if err != nil {
		return nil, mapPgError(err)
	}
	return scanSummaries(rows)
}

func scanSummaries(rows pgx.Rows) ([]domain.UserSummary, error) {
	defer rows.Close()

	out := make([]domain.UserSummary, 0, 8)
	for rows.Next() {
		var (
			id       int64
			username string
		)
		if err := rows.Scan(&id, &username); err != nil {
			return nil, err
		}
		out = append(out, domain.UserSummary{ID: domain.UserID(id), Username: username})
	}

	return out, rows.Err()
}
