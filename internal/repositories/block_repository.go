package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"match-service/internal/models"
)

// BlockRepository manages the block list.
type BlockRepository interface {
	Block(ctx context.Context, blockerID, blockedID int64) error
	Unblock(ctx context.Context, blockerID, blockedID int64) error
	IsBlocked(ctx context.Context, a, b int64) (bool, error)
	ListBlocked(ctx context.Context, blockerID int64) ([]models.BlockedUser, error)
}

type BlockRepo struct {
	db *sqlx.DB
}

func NewBlockRepo(db *sqlx.DB) *BlockRepo {
	return &BlockRepo{db: db}
}

// Block records the block. ErrAlreadyBlocked is returned on a repeat.
func (r *BlockRepo) Block(ctx context.Context, blockerID, blockedID int64) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO blocked_users (blocker_id, blocked_id) VALUES ($1, $2)
        ON CONFLICT (blocker_id, blocked_id) DO NOTHING`, blockerID, blockedID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrAlreadyBlocked
	}
	return nil
}

func (r *BlockRepo) Unblock(ctx context.Context, blockerID, blockedID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM blocked_users WHERE blocker_id=$1 AND blocked_id=$2`, blockerID, blockedID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotBlocked
	}
	return nil
}

// IsBlocked is true when either user blocked the other.
func (r *BlockRepo) IsBlocked(ctx context.Context, a, b int64) (bool, error) {
	var blocked bool
	err := r.db.GetContext(ctx, &blocked, `SELECT EXISTS(SELECT 1 FROM blocked_users
        WHERE (blocker_id=$1 AND blocked_id=$2) OR (blocker_id=$2 AND blocked_id=$1))`, a, b)
	return blocked, err
}

func (r *BlockRepo) ListBlocked(ctx context.Context, blockerID int64) ([]models.BlockedUser, error) {
	var list []models.BlockedUser
	err := r.db.SelectContext(ctx, &list, `SELECT u.id AS user_id, u.username, u.photo_url, b.created_at AS blocked_at
        FROM blocked_users b JOIN users u ON u.id = b.blocked_id
        WHERE b.blocker_id=$1
        ORDER BY b.created_at DESC`, blockerID)
	return list, err
}
