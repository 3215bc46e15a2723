package models

import "time"

type BlockedUser struct {
	UserID    int64     `db:"user_id" json:"user_id"`
	Username  string    `db:"username" json:"username"`
	PhotoURL  string    `db:"photo_url" json:"photo_url,omitempty"`
	BlockedAt time.Time `db:"blocked_at" json:"blocked_at"`
}

type ReportStatus string

const (
	ReportStatusPending  ReportStatus = "pending"
	ReportStatusReviewed ReportStatus = "reviewed"
)

// Report is a complaint filed by one user against another.
type Report struct {
	ID         int64        `db:"id" json:"id"`
	ReporterID int64        `db:"reporter_id" json:"reporter_id"`
	ReportedID int64        `db:"reported_id" json:"reported_id"`
	ReportType string       `db:"report_type" json:"report_type"`
	Reason     string       `db:"reason" json:"reason,omitempty"`
	Status     ReportStatus `db:"status" json:"status"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
}
