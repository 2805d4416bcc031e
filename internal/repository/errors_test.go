package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestPgErrorClassification(t *testing.T) {
	denied := &pgconn.PgError{Code: "42501", Message: "permission denied for table products"}
	missing := &pgconn.PgError{Code: "42P01", Message: `relation "products" does not exist`}

	assert.True(t, IsPermissionDenied(denied))
	assert.False(t, IsPermissionDenied(missing))

	assert.True(t, IsUndefinedTable(missing))
	assert.False(t, IsUndefinedTable(denied))

	// wrapped errors still classify
	assert.True(t, IsPermissionDenied(fmt.Errorf("list products: %w", denied)))

	assert.False(t, IsPermissionDenied(nil))
	assert.False(t, IsPermissionDenied(errors.New("permission denied")))
	assert.False(t, IsUndefinedTable(nil))
}
