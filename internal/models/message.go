package models

import "time"

// Message is a chat line exchanged inside an accepted match.
type Message struct {
	ID        int64     `db:"id" json:"id"`
	MatchID   int64     `db:"match_id" json:"match_id"`
	SenderID  int64     `db:"sender_id" json:"sender_id"`
	Content   string    `db:"content" json:"content"`
	Recalled  bool      `db:"recalled" json:"recalled"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Conversation is an accepted match listed with its latest message.
type Conversation struct {
	MatchID       int64      `db:"match_id" json:"match_id"`
	PeerID        int64      `db:"peer_id" json:"peer_id"`
	PeerUsername  string     `db:"peer_username" json:"peer_username"`
	PeerPhotoURL  string     `db:"peer_photo_url" json:"peer_photo_url,omitempty"`
	LastMessage   *string    `db:"last_message" json:"last_message,omitempty"`
	LastMessageAt *time.Time `db:"last_message_at" json:"last_message_at,omitempty"`
	MatchedAt     *time.Time `db:"matched_at" json:"matched_at,omitempty"`
}

// ChatEvent is pushed to a match room.
type ChatEvent struct {
	Type      string   `json:"type"`
	Message   *Message `json:"message,omitempty"`
	MessageID int64    `json:"message_id,omitempty"`
}
