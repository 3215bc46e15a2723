package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"match-service/internal/matching"
	"match-service/internal/models"
)

// MatchRepository serves read paths over match records.
type MatchRepository interface {
	GetMatch(ctx context.Context, matchID int64) (models.Match, error)
	ListMatched(ctx context.Context, userID int64) ([]models.MatchSummary, error)
	ListLikes(ctx context.Context, userID int64) ([]models.MatchSummary, error)
	ListDisliked(ctx context.Context, userID int64, limit int) ([]models.MatchSummary, error)
}

// MatchRepo is a sqlx implementation of MatchRepository and matching.Store.
type MatchRepo struct {
	db *sqlx.DB
}

var (
	_ MatchRepository = (*MatchRepo)(nil)
	_ matching.Store  = (*MatchRepo)(nil)
)

// NewMatchRepo constructs a MatchRepo.
func NewMatchRepo(db *sqlx.DB) *MatchRepo {
	return &MatchRepo{db: db}
}

const matchColumns = `id, user1_id, user2_id, user1_swiped, user2_swiped, user1_decision, user2_decision, status, swiped_at, matched_at, created_at`

// InTx runs fn in a read-committed transaction and commits when it succeeds.
func (r *MatchRepo) InTx(ctx context.Context, fn func(tx matching.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	if err := fn(&matchTx{tx: tx}); err != nil {
		return classifyMatchErr(err)
	}
	if err := tx.Commit(); err != nil {
		return classifyMatchErr(err)
	}
	tx = nil
	return nil
}

type matchTx struct {
	tx *sqlx.Tx
}

// PairLockKey is the advisory lock key shared by both directions of a pair.
func PairLockKey(a, b int64) string {
	low, high := models.CanonicalPair(a, b)
	return fmt.Sprintf("match:%d:%d", low, high)
}

func (t *matchTx) LockPair(ctx context.Context, a, b int64) error {
	_, err := t.tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, PairLockKey(a, b))
	return err
}

func (t *matchTx) FindByPair(ctx context.Context, a, b int64) (*models.Match, error) {
	var m models.Match
	err := t.tx.GetContext(ctx, &m, `SELECT `+matchColumns+` FROM matches
        WHERE (user1_id=$1 AND user2_id=$2) OR (user1_id=$2 AND user2_id=$1)
        FOR UPDATE`, a, b)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (t *matchTx) Insert(ctx context.Context, m models.Match) (models.Match, error) {
	err := t.tx.QueryRowxContext(ctx, `INSERT INTO matches
        (user1_id, user2_id, user1_swiped, user2_swiped, user1_decision, user2_decision, status, swiped_at, matched_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id, created_at`,
		m.User1ID, m.User2ID, m.User1Swiped, m.User2Swiped, m.User1Decision, m.User2Decision, m.Status, m.SwipedAt, m.MatchedAt).
		Scan(&m.ID, &m.CreatedAt)
	return m, err
}

func (t *matchTx) Update(ctx context.Context, m models.Match) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE matches SET
        user1_swiped=$2, user2_swiped=$3, user1_decision=$4, user2_decision=$5, status=$6, swiped_at=$7, matched_at=$8
        WHERE id=$1`,
		m.ID, m.User1Swiped, m.User2Swiped, m.User1Decision, m.User2Decision, m.Status, m.SwipedAt, m.MatchedAt)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMatchNotFound
	}
	return nil
}

// GetMatch fetches a match by id.
func (r *MatchRepo) GetMatch(ctx context.Context, matchID int64) (models.Match, error) {
	var m models.Match
	err := r.db.GetContext(ctx, &m, `SELECT `+matchColumns+` FROM matches WHERE id=$1`, matchID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Match{}, ErrMatchNotFound
	}
	return m, err
}

const summarySelect = `SELECT m.id, u.id AS user_id, u.username, u.city, u.photo_url, m.status, m.swiped_at, m.matched_at
        FROM matches m
        JOIN users u ON u.id = CASE WHEN m.user1_id = $1 THEN m.user2_id ELSE m.user1_id END
        WHERE (m.user1_id = $1 OR m.user2_id = $1)
        AND NOT EXISTS (
            SELECT 1 FROM blocked_users b
            WHERE (b.blocker_id = $1 AND b.blocked_id = u.id) OR (b.blocker_id = u.id AND b.blocked_id = $1)
        )`

// ListMatched returns accepted matches, most recent first.
func (r *MatchRepo) ListMatched(ctx context.Context, userID int64) ([]models.MatchSummary, error) {
	var list []models.MatchSummary
	err := r.db.SelectContext(ctx, &list, summarySelect+`
        AND m.status = 'accepted'
        ORDER BY m.matched_at DESC`, userID)
	return list, err
}

// ListLikes returns users who liked userID and are still waiting for an answer.
func (r *MatchRepo) ListLikes(ctx context.Context, userID int64) ([]models.MatchSummary, error) {
	var list []models.MatchSummary
	err := r.db.SelectContext(ctx, &list, summarySelect+`
        AND m.status = 'pending'
        AND ((m.user1_id = $1 AND NOT m.user1_swiped) OR (m.user2_id = $1 AND NOT m.user2_swiped))
        ORDER BY m.swiped_at DESC`, userID)
	return list, err
}

// ListDisliked returns users that userID declined, for a second look.
func (r *MatchRepo) ListDisliked(ctx context.Context, userID int64, limit int) ([]models.MatchSummary, error) {
	var list []models.MatchSummary
	err := r.db.SelectContext(ctx, &list, summarySelect+`
        AND m.status <> 'accepted'
        AND ((m.user1_id = $1 AND m.user1_decision = 'dislike') OR (m.user2_id = $1 AND m.user2_decision = 'dislike'))
        ORDER BY m.swiped_at DESC
        LIMIT $2`, userID, limit)
	return list, err
}
