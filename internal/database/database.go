package database

import (
	"context"
	"errors"

	"biznesnet/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	checkViolation      = "23514"
)

// WithTx runs fn inside a transaction. The transaction is rolled back when fn
// returns an error and committed otherwise.
func WithTx(db dbx.Beginner, ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}

func IsUniqueViolation(err error) (*pgconn.PgError, bool) {
	return pgErrorWithCode(err, uniqueViolation)
}

func IsForeignKeyViolation(err error) (*pgconn.PgError, bool) {
	return pgErrorWithCode(err, foreignKeyViolation)
}

func IsCheckViolation(err error) (*pgconn.PgError, bool) {
	return pgErrorWithCode(err, checkViolation)
}

func pgErrorWithCode(err error, code string) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == code {
		return pgErr, true
	}
	return nil, false
}
