package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"match-service/internal/models"
)

// MessageRepository defines interactions for match chat messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, matchID, senderID int64, content string) (models.Message, error)
	ListMessages(ctx context.Context, matchID int64, beforeID int64, limit int) ([]models.Message, error)
	GetMessage(ctx context.Context, messageID int64) (models.Message, error)
	RecallMessage(ctx context.Context, messageID, senderID int64) error
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, match_id, sender_id, content, recalled, created_at`

// CreateMessage stores a message in a match conversation.
func (r *MessageRepo) CreateMessage(ctx context.Context, matchID, senderID int64, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (match_id, sender_id, content) VALUES ($1, $2, $3) RETURNING `+messageColumns,
		matchID, senderID, content).StructScan(&msg)
	return msg, err
}

// ListMessages returns up to limit messages older than beforeID in
// chronological order. beforeID 0 starts from the newest.
func (r *MessageRepo) ListMessages(ctx context.Context, matchID int64, beforeID int64, limit int) ([]models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM (
            SELECT ` + messageColumns + ` FROM messages
            WHERE match_id=$1 AND recalled = FALSE AND ($2 = 0 OR id < $2)
            ORDER BY id DESC
            LIMIT $3
        ) recent ORDER BY id ASC`
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, query, matchID, beforeID, limit)
	return msgs, err
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int64) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// RecallMessage hides a message for both sides. Only the sender may recall.
func (r *MessageRepo) RecallMessage(ctx context.Context, messageID, senderID int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET recalled = TRUE WHERE id=$1 AND sender_id=$2 AND recalled = FALSE`, messageID, senderID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}
