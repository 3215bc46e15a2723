package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jmoiron/sqlx"

	"match-service/internal/models"
)

// NotificationRepository persists the per-user notification inbox.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, userID int64, eventID string, eventType models.EventType, payload json.RawMessage) (models.Notification, error)
	ListNotifications(ctx context.Context, userID int64, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID int64) error
	DeleteRead(ctx context.Context, userID int64) (int64, error)
}

type NotificationRepo struct {
	db *sqlx.DB
}

func NewNotificationRepo(db *sqlx.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

// CreateNotification stores an event once per recipient. Replaying the same
// event ID returns the row stored the first time.
func (r *NotificationRepo) CreateNotification(ctx context.Context, userID int64, eventID string, eventType models.EventType, payload json.RawMessage) (models.Notification, error) {
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	var n models.Notification
	err := r.db.GetContext(ctx, &n, `WITH ins AS (
            INSERT INTO notifications (user_id, event_id, type, payload) VALUES ($1, $2, $3, $4::jsonb)
            ON CONFLICT (user_id, event_id) DO NOTHING
            RETURNING id, user_id, event_id, type, payload, is_read, created_at
        )
        SELECT * FROM ins
        UNION ALL
        SELECT id, user_id, event_id, type, payload, is_read, created_at FROM notifications WHERE user_id=$1 AND event_id=$2
        LIMIT 1`, userID, eventID, eventType, string(payload))
	if isForeignKeyViolation(err) {
		return models.Notification{}, ErrUserNotFound
	}
	return n, err
}

// ListNotifications returns the newest notifications first.
func (r *NotificationRepo) ListNotifications(ctx context.Context, userID int64, limit int) ([]models.Notification, error) {
	var list []models.Notification
	err := r.db.SelectContext(ctx, &list, `SELECT id, user_id, event_id, type, payload, is_read, created_at
        FROM notifications WHERE user_id=$1
        ORDER BY created_at DESC, id DESC
        LIMIT $2`, userID, limit)
	return list, err
}

func (r *NotificationRepo) MarkRead(ctx context.Context, userID, notificationID int64) error {
	var id int64
	err := r.db.GetContext(ctx, &id, `UPDATE notifications SET is_read = TRUE WHERE id=$1 AND user_id=$2 RETURNING id`, notificationID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotificationNotFound
	}
	return err
}

// DeleteRead clears read notifications and reports how many were removed.
func (r *NotificationRepo) DeleteRead(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE user_id=$1 AND is_read = TRUE`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
