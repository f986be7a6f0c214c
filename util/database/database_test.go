package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestErrorClassification(t *testing.T) {
	wrap := func(code string) error {
		return fmt.Errorf("get book 2: %w", &pgconn.PgError{Code: code})
	}

	require.True(t, IsLockConflict(wrap(pgerrcode.DeadlockDetected)))
	require.True(t, IsLockConflict(wrap(pgerrcode.SerializationFailure)))
	require.False(t, IsLockConflict(wrap(pgerrcode.UniqueViolation)))
	require.False(t, IsLockConflict(errors.New("connection reset")))

	require.True(t, IsForeignKeyViolation(wrap(pgerrcode.ForeignKeyViolation)))
	require.True(t, IsUniqueViolation(wrap(pgerrcode.UniqueViolation)))
	require.False(t, IsUniqueViolation(nil))
}
