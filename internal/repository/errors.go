package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgCodePermissionDenied = "42501"
	pgCodeUndefinedTable   = "42P01"
)

// IsPermissionDenied reports a row-level-security style rejection. These
// are permanent authorization failures, never retried.
func IsPermissionDenied(err error) bool {
	return pgCode(err) == pgCodePermissionDenied
}

// IsUndefinedTable reports a schema error: the backing table is missing
// from the current project.
func IsUndefinedTable(err error) bool {
	return pgCode(err) == pgCodeUndefinedTable
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
