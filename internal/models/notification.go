package models

import (
	"encoding/json"
	"time"
)

// EventType names a fan-out event delivered to a user's private channel.
type EventType string

const (
	EventLikedYou      EventType = "liked-you"
	EventNewMatch      EventType = "new-match"
	EventNewConnection EventType = "new-connection"
)

// Notification is the persisted copy of a fan-out event for one recipient.
type Notification struct {
	ID        int64           `db:"id" json:"id"`
	UserID    int64           `db:"user_id" json:"user_id"`
	EventID   string          `db:"event_id" json:"event_id"`
	Type      EventType       `db:"type" json:"type"`
	Payload   json.RawMessage `db:"payload" json:"payload"`
	IsRead    bool            `db:"is_read" json:"is_read"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}
