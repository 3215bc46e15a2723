package repositories

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"match-service/internal/matching"
	"match-service/internal/matching/matchingtest"
	"match-service/internal/models"
)

var matchCols = []string{"id", "user1_id", "user2_id", "user1_swiped", "user2_swiped", "user1_decision", "user2_decision", "status", "swiped_at", "matched_at", "created_at"}

func newMockRepo(t *testing.T) (*MatchRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewMatchRepo(sqlx.NewDb(db, "postgres")), mock
}

func TestEngineCreatesRecordThroughStore(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`)).
		WithArgs("match:4:9").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
		WithArgs(int64(9), int64(4)).
		WillReturnRows(sqlmock.NewRows(matchCols))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO matches`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(77), created))
	mock.ExpectCommit()

	recorder := &matchingtest.Recorder{}
	engine := matching.NewEngine(repo, nil, recorder)

	res, err := engine.RecordDecision(context.Background(), matching.DecisionInput{ActorID: 9, TargetID: 4, Decision: models.DecisionLike})
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusPending, res.Status)
	assert.Equal(t, int64(77), res.Match.ID)
	assert.Equal(t, 1, recorder.Count(4, models.EventLikedYou))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEngineAcceptsExistingRecordThroughStore(t *testing.T) {
	repo, mock := newMockRepo(t)
	swiped := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`pg_advisory_xact_lock`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
		WillReturnRows(sqlmock.NewRows(matchCols).
			AddRow(int64(5), int64(4), int64(9), true, false, "like", "", "pending", swiped, nil, swiped))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE matches SET`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	engine := matching.NewEngine(repo, nil, &matchingtest.Recorder{})
	res, err := engine.RecordDecision(context.Background(), matching.DecisionInput{ActorID: 9, TargetID: 4, Decision: models.DecisionLike})
	require.NoError(t, err)
	assert.True(t, res.IsNewMatch)
	assert.Equal(t, models.MatchStatusAccepted, res.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInTxMapsSerializationFailure(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`pg_advisory_xact_lock`)).WillReturnError(&pq.Error{Code: "40P01"})
	mock.ExpectRollback()

	err := repo.InTx(context.Background(), func(tx matching.Tx) error {
		return tx.LockPair(context.Background(), 1, 2)
	})
	assert.True(t, errors.Is(err, matching.ErrConflictRace))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInTxRollsBackOnCallbackError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := repo.InTx(context.Background(), func(tx matching.Tx) error {
		return matching.ErrInvalidStateTransition
	})
	assert.True(t, errors.Is(err, matching.ErrInvalidStateTransition))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMatchNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM matches WHERE id=$1`)).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(matchCols))

	_, err := repo.GetMatch(context.Background(), 3)
	assert.ErrorIs(t, err, ErrMatchNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
