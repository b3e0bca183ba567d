package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/campusmatch/internal/db"
)

// ReportRepository stores moderation reports.
type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(database *gorm.DB) *ReportRepository {
	return &ReportRepository{db: database}
}

// Create stores the report. A second report of the same confession by the same
// reporter fails with gorm.ErrDuplicatedKey.
func (r *ReportRepository) Create(ctx context.Context, rep *db.Report) error {
	if rep.Status == "" {
		rep.Status = db.ReportStatusPending
	}
	return r.db.WithContext(ctx).Create(rep).Error
}

// HasReportedConfession reports whether reporter already reported the confession.
func (r *ReportRepository) HasReportedConfession(ctx context.Context, reporter, confessionID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Report{}).
		Where("reporter_email = ? AND confession_id = ?", reporter, confessionID).
		Count(&count).Error
	return count > 0, err
}

// CountForConfession counts every report filed against the confession.
func (r *ReportRepository) CountForConfession(ctx context.Context, confessionID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Report{}).
		Where("confession_id = ?", confessionID).
		Count(&count).Error
	return count, err
}
