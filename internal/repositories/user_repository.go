package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"match-service/internal/matching"
	"match-service/internal/models"
)

// UserRepository reads user profiles.
type UserRepository interface {
	GetUser(ctx context.Context, userID int64) (models.User, error)
	Exists(ctx context.Context, userID int64) (bool, error)
}

// UserRepo is a sqlx-backed UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetUser fetches a user by id.
func (r *UserRepo) GetUser(ctx context.Context, userID int64) (models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u, `SELECT id, username, city, photo_url, created_at FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return u, err
}

// Exists reports whether the user row is present.
func (r *UserRepo) Exists(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE id=$1)`, userID)
	return exists, err
}

// Directory adapts the user and block repositories to matching.Directory.
type Directory struct {
	Users  UserRepository
	Blocks BlockRepository
}

var _ matching.Directory = Directory{}

func (d Directory) UserExists(ctx context.Context, userID int64) (bool, error) {
	return d.Users.Exists(ctx, userID)
}

func (d Directory) IsBlocked(ctx context.Context, a, b int64) (bool, error) {
	return d.Blocks.IsBlocked(ctx, a, b)
}
