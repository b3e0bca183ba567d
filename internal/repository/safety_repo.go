package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/campusmatch/internal/db"
)

// SafetyRepository is the SQL sink for panic and location events.
type SafetyRepository struct {
	db *gorm.DB
}

func NewSafetyRepository(database *gorm.DB) *SafetyRepository {
	return &SafetyRepository{db: database}
}

// RecordSafetyEvent stores the event. ID must be set by the caller.
func (r *SafetyRepository) RecordSafetyEvent(ctx context.Context, ev *db.SafetyEvent) error {
	return r.db.WithContext(ctx).Create(ev).Error
}

// ListSafetyEvents returns the user's events newest first.
func (r *SafetyRepository) ListSafetyEvents(ctx context.Context, email string, limit int) ([]db.SafetyEvent, error) {
	var out []db.SafetyEvent
	err := r.db.WithContext(ctx).
		Where("user_email = ?", email).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
