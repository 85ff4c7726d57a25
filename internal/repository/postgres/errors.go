package postgres

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"docvault/internal/repository"
)

// IsPgForeignKeyError checks if error is a foreign key violation.
func IsPgForeignKeyError(err error) bool {
	return hasPgCode(err, "23503")
}

// IsPgInvalidTextError reports a value Postgres could not parse for the
// column type, such as a malformed UUID.
func IsPgInvalidTextError(err error) bool {
	return hasPgCode(err, "22P02")
}

func hasPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}

// mapError turns driver errors that mean "referenced row missing" into repository.ErrNotFound.
// A malformed id cannot match any row, so it maps the same way.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) || IsPgForeignKeyError(err) || IsPgInvalidTextError(err) {
		return repository.ErrNotFound
	}
	return err
}
