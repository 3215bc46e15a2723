package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"match-service/internal/models"
)

type ReportRepository interface {
	CreateReport(ctx context.Context, reporterID, reportedID int64, reportType, reason string) (models.Report, error)
}

type ReportRepo struct {
	db *sqlx.DB
}

func NewReportRepo(db *sqlx.DB) *ReportRepo {
	return &ReportRepo{db: db}
}

// CreateReport files a pending report. A reporter may report a user once.
func (r *ReportRepo) CreateReport(ctx context.Context, reporterID, reportedID int64, reportType, reason string) (models.Report, error) {
	var report models.Report
	err := r.db.QueryRowxContext(ctx, `INSERT INTO reports (reporter_id, reported_id, report_type, reason, status)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, reporter_id, reported_id, report_type, reason, status, created_at`,
		reporterID, reportedID, reportType, reason, models.ReportStatusPending).StructScan(&report)
	switch {
	case isUniqueViolation(err):
		return models.Report{}, ErrAlreadyReported
	case isForeignKeyViolation(err):
		return models.Report{}, ErrUserNotFound
	}
	return report, err
}
