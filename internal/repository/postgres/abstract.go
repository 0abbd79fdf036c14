package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/cwrk-planet/messenger/internal/domain"

	"github.com/jackc/pgx/v5"
	pgconn "github.com/jackc/pgx/v5/pgconn"
)

/*
абстрактный слой над *pgxpool.Pool / pgx.Tx
чтобы запросы можно было делать атомарно а не по одному
*/
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// dbtx: querier, умеющий открыть транзакцию. У pgx.Tx Begin даёт savepoint.
type dbtx interface {
	querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

func withTx(ctx context.Context, db dbtx, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return mapPgError(err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	return mapPgError(tx.Commit(ctx))
}

func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique violation
			return domain.ErrConflict
		case "23503": // foreign key violation
			return domain.ErrNotFound
		case "23514": // check violation
			return domain.ErrInvalidInput
		}
	}

	return err
}

// narrow подменяет корневую ошибку таксономии на более конкретную.
func narrow(err, root, specific error) error {
	if errors.Is(err, root) {
		return specific
	}
	return err
}

func notFoundAs(err, specific error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return specific
	}
	return mapPgError(err)
}

// setBuilder собирает SET-часть UPDATE с позиционными параметрами.
type setBuilder struct {
	parts []string
	args  []any
}

func (b *setBuilder) add(column string, v any) {
	b.args = append(b.args, v)
	b.parts = append(b.parts, column+" = $"+itoa(len(b.args)))
}

func (b *setBuilder) empty() bool { return len(b.parts) == 0 }

// build возвращает "UPDATE t SET ... WHERE key = $n" и аргументы; id идёт последним.
func (b *setBuilder) build(table, key string, id any) (string, []any) {
	args := append(b.args, id)
	sql := "UPDATE " + table + " SET " + strings.Join(b.parts, ", ") +
		" WHERE " + key + " = $" + itoa(len(args)) + ";"
	return sql, args
}

// escapeLike экранирует спецсимволы LIKE и оборачивает в %...%.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func itoa(i int) string {
	const digits = "0123456789"
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	for i > 0 {
		n--
		b[n] = digits[i%10]
		i /= 10
	}

	return string(b[n:])
}
