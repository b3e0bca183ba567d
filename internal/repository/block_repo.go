package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/campusmatch/internal/db"
)

// BlockRepository manages directional block relations.
type BlockRepository struct {
	db *gorm.DB
}

func NewBlockRepository(database *gorm.DB) *BlockRepository {
	return &BlockRepository{db: database}
}

// BlockStatus describes a pair from the point of view of the first user.
type BlockStatus struct {
	BlockedByMe bool
	BlockedMe   bool
}

// Blocked is true when either direction exists.
func (s BlockStatus) Blocked() bool { return s.BlockedByMe || s.BlockedMe }

// Block is idempotent.
func (r *BlockRepository) Block(ctx context.Context, blocker, blocked string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&db.Block{BlockerEmail: blocker, BlockedEmail: blocked}).Error
}

// Unblock is idempotent.
func (r *BlockRepository) Unblock(ctx context.Context, blocker, blocked string) error {
	return r.db.WithContext(ctx).
		Where("blocker_email = ? AND blocked_email = ?", blocker, blocked).
		Delete(&db.Block{}).Error
}

// ListBlocked returns the users blocker has blocked, ordered by email.
func (r *BlockRepository) ListBlocked(ctx context.Context, blocker string) ([]string, error) {
	var emails []string
	err := r.db.WithContext(ctx).
		Model(&db.Block{}).
		Where("blocker_email = ?", blocker).
		Order("blocked_email").
		Pluck("blocked_email", &emails).Error
	return emails, err
}

// ListBlockers returns the users that blocked email.
func (r *BlockRepository) ListBlockers(ctx context.Context, email string) ([]string, error) {
	var emails []string
	err := r.db.WithContext(ctx).
		Model(&db.Block{}).
		Where("blocked_email = ?", email).
		Order("blocker_email").
		Pluck("blocker_email", &emails).Error
	return emails, err
}

// Status reports both block directions between me and other.
func (r *BlockRepository) Status(ctx context.Context, me, other string) (BlockStatus, error) {
	var rows []db.Block
	err := r.db.WithContext(ctx).
		Where("(blocker_email = ? AND blocked_email = ?) OR (blocker_email = ? AND blocked_email = ?)", me, other, other, me).
		Find(&rows).Error
	if err != nil {
		return BlockStatus{}, err
	}

	var st BlockStatus
	for _, b := range rows {
		if b.BlockerEmail == me {
			st.BlockedByMe = true
		} else {
			st.BlockedMe = true
		}
	}
	return st, nil
}

// BlockedEither reports whether a or b blocked the other.
func (r *BlockRepository) BlockedEither(ctx context.Context, a, b string) (bool, error) {
	st, err := r.Status(ctx, a, b)
	return st.Blocked(), err
}
