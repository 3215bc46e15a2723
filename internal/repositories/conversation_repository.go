package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"match-service/internal/models"
)

// ConversationRepository exposes accepted matches as chat conversations.
type ConversationRepository interface {
	ListConversations(ctx context.Context, userID int64) ([]models.Conversation, error)
	CanChat(ctx context.Context, matchID, userID int64) (bool, error)
}

type ConversationRepo struct {
	db *sqlx.DB
}

func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

// ListConversations returns the user's conversations ordered by latest activity.
func (r *ConversationRepo) ListConversations(ctx context.Context, userID int64) ([]models.Conversation, error) {
	query := `SELECT m.id AS match_id, u.id AS peer_id, u.username AS peer_username, u.photo_url AS peer_photo_url,
            last.content AS last_message, last.created_at AS last_message_at, m.matched_at
        FROM matches m
        JOIN users u ON u.id = CASE WHEN m.user1_id = $1 THEN m.user2_id ELSE m.user1_id END
        LEFT JOIN LATERAL (
            SELECT content, created_at FROM messages
            WHERE match_id = m.id AND recalled = FALSE
            ORDER BY id DESC LIMIT 1
        ) last ON TRUE
        WHERE (m.user1_id = $1 OR m.user2_id = $1) AND m.status = 'accepted'
        AND NOT EXISTS (
            SELECT 1 FROM blocked_users b
            WHERE (b.blocker_id = $1 AND b.blocked_id = u.id) OR (b.blocker_id = u.id AND b.blocked_id = $1)
        )
        ORDER BY COALESCE(last.created_at, m.matched_at) DESC`
	var list []models.Conversation
	err := r.db.SelectContext(ctx, &list, query, userID)
	return list, err
}

// CanChat is true when the match is accepted, userID is a participant and
// neither side blocked the other.
func (r *ConversationRepo) CanChat(ctx context.Context, matchID, userID int64) (bool, error) {
	var ok bool
	err := r.db.GetContext(ctx, &ok, `SELECT EXISTS(
            SELECT 1 FROM matches m
            WHERE m.id=$1 AND m.status = 'accepted' AND (m.user1_id=$2 OR m.user2_id=$2)
            AND NOT EXISTS (
                SELECT 1 FROM blocked_users b
                WHERE (b.blocker_id = m.user1_id AND b.blocked_id = m.user2_id)
                   OR (b.blocker_id = m.user2_id AND b.blocked_id = m.user1_id)
            )
        )`, matchID, userID)
	return ok, err
}
