package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type AccountRepository interface {
	DeleteAccount(ctx context.Context, userID int64) error
}

type AccountRepo struct {
	db *sqlx.DB
}

func NewAccountRepo(db *sqlx.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

// DeleteAccount removes the user and everything that references them in a
// single transaction.
func (r *AccountRepo) DeleteAccount(ctx context.Context, userID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	cleanup := []string{
		`DELETE FROM messages WHERE sender_id=$1 OR match_id IN (SELECT id FROM matches WHERE user1_id=$1 OR user2_id=$1)`,
		`DELETE FROM matches WHERE user1_id=$1 OR user2_id=$1`,
		`DELETE FROM blocked_users WHERE blocker_id=$1 OR blocked_id=$1`,
		`DELETE FROM reports WHERE reporter_id=$1 OR reported_id=$1`,
		`DELETE FROM notifications WHERE user_id=$1`,
	}
	for _, stmt := range cleanup {
		if _, err := tx.ExecContext(ctx, stmt, userID); err != nil {
			return err
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, userID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrUserNotFound
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	tx = nil
	return nil
}
