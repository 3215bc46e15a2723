package db

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func TestMigrateRunsEveryStatementInOrder(t *testing.T) {
	db, mock := newMockDB(t)
	for _, m := range migrations {
		mock.ExpectExec(m).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateStopsAtFirstFailure(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(migrations[0]).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(migrations[1]).WillReturnError(errors.New("permission denied"))

	err := Migrate(context.Background(), db)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrationsAreIdempotent(t *testing.T) {
	for _, m := range migrations {
		stmt := strings.TrimSpace(m)
		switch {
		case strings.HasPrefix(stmt, "CREATE"):
			assert.Contains(t, stmt, "IF NOT EXISTS", stmt)
		case strings.HasPrefix(stmt, "ALTER TABLE"):
			assert.Contains(t, stmt, "ADD COLUMN IF NOT EXISTS", stmt)
		case strings.HasPrefix(stmt, "UPDATE"):
			assert.Contains(t, stmt, "= ''", stmt)
		default:
			t.Errorf("unexpected migration %q", stmt)
		}
	}
}

func TestPairIndexIsOrderIndependent(t *testing.T) {
	var found bool
	for _, m := range migrations {
		if strings.Contains(m, "matches_pair_uniq") {
			found = true
			assert.Contains(t, m, "LEAST(user1_id, user2_id), GREATEST(user1_id, user2_id)")
		}
	}
	assert.True(t, found)
}
