package models

import "time"

// User is the subset of a profile the match service reads.
type User struct {
	ID        int64     `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	City      string    `db:"city" json:"city,omitempty"`
	PhotoURL  string    `db:"photo_url" json:"photo_url,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
