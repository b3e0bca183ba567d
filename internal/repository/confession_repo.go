package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/campusmatch/internal/db"
)

// ConfessionRepository covers confessions, their comments and every reaction
// attached to either.
type ConfessionRepository struct {
	db *gorm.DB
}

func NewConfessionRepository(database *gorm.DB) *ConfessionRepository {
	return &ConfessionRepository{db: database}
}

func (r *ConfessionRepository) withThread(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Reactions", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at, emoji, user_email") }).
		Preload("Comments", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at, id") }).
		Preload("Comments.Reactions", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at, user_email") })
}

// Create stores a confession. ID must be set by the caller.
func (r *ConfessionRepository) Create(ctx context.Context, c *db.Confession) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error
}

// GetByID loads the confession with comments and reactions.
func (r *ConfessionRepository) GetByID(ctx context.Context, id string) (*db.Confession, error) {
	var c db.Confession
	if err := r.withThread(ctx).Where("id = ?", id).Take(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// Exists reports whether the confession is stored.
func (r *ConfessionRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.Confession{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// ConfessionFilter narrows List. The zero value lists everything.
type ConfessionFilter struct {
	Group          *string
	ExcludeAuthors []string
}

func (f ConfessionFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Group != nil {
		q = q.Where("cohort = ?", *f.Group)
	}
	if len(f.ExcludeAuthors) > 0 {
		q = q.Where("user_email NOT IN ?", f.ExcludeAuthors)
	}
	return q
}

// List returns a page of confessions newest first plus the total matching count.
//
// Behavior:
//   - A nil Group lists every cohort.
//   - skip/limit are applied after ordering by created_at DESC, id DESC.
func (r *ConfessionRepository) List(ctx context.Context, f ConfessionFilter, skip, limit int) ([]db.Confession, int64, error) {
	var total int64
	if err := f.apply(r.db.WithContext(ctx).Model(&db.Confession{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []db.Confession
	err := f.apply(r.withThread(ctx)).
		Order("created_at DESC, id DESC").
		Offset(skip).
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Delete removes the confession together with its comments and reactions.
// Everything goes in one transaction; a failure leaves the thread intact.
func (r *ConfessionRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		commentIDs := tx.Model(&db.Comment{}).Select("id").Where("confession_id = ?", id)
		if err := tx.Where("comment_id IN (?)", commentIDs).Delete(&db.CommentReaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("confession_id = ?", id).Delete(&db.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("confession_id = ?", id).Delete(&db.ConfessionReaction{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&db.Confession{}).Error
	})
}

// AddReaction is idempotent per (confession, emoji, user).
func (r *ConfessionRepository) AddReaction(ctx context.Context, confessionID, emoji, email string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&db.ConfessionReaction{ConfessionID: confessionID, Emoji: emoji, UserEmail: email}).Error
}

func (r *ConfessionRepository) RemoveReaction(ctx context.Context, confessionID, emoji, email string) error {
	return r.db.WithContext(ctx).
		Where("confession_id = ? AND emoji = ? AND user_email = ?", confessionID, emoji, email).
		Delete(&db.ConfessionReaction{}).Error
}

// AddComment stores a comment. ID must be set by the caller.
func (r *ConfessionRepository) AddComment(ctx context.Context, c *db.Comment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error
}

// CommentBelongs reports whether commentID is part of confessionID's thread.
func (r *ConfessionRepository) CommentBelongs(ctx context.Context, confessionID, commentID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Comment{}).
		Where("id = ? AND confession_id = ?", commentID, confessionID).
		Count(&count).Error
	return count > 0, err
}

func (r *ConfessionRepository) AddCommentReaction(ctx context.Context, commentID, email string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&db.CommentReaction{CommentID: commentID, UserEmail: email}).Error
}

func (r *ConfessionRepository) RemoveCommentReaction(ctx context.Context, commentID, email string) error {
	return r.db.WithContext(ctx).
		Where("comment_id = ? AND user_email = ?", commentID, email).
		Delete(&db.CommentReaction{}).Error
}
