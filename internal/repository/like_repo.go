package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/campusmatch/internal/db"
	"github.com/oggyb/campusmatch/internal/utils/pagination"
)

// LikeRepository provides data access methods for the Like model.
// It encapsulates all queries related to one-directional likes and the
// mutual matches derived from them.
type LikeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new repository bound to the given DB connection.
func NewLikeRepository(database *gorm.DB) *LikeRepository {
	return &LikeRepository{db: database}
}

// AddLike records liker -> liked.
//
// Behavior:
//   - Idempotent: an existing pair is left untouched.
//   - created reports whether a new row was inserted.
//
// Example:
//
//	repo.AddLike(ctx, "a@uni.edu", "b@uni.edu") // a liked b
func (r *LikeRepository) AddLike(ctx context.Context, liker, liked string) (created bool, err error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&db.Like{LikerEmail: liker, LikedEmail: liked})
	return res.RowsAffected > 0, res.Error
}

// LikeSetSize returns how many users liker has liked.
func (r *LikeRepository) LikeSetSize(ctx context.Context, liker string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("liker_email = ?", liker).
		Count(&count).Error
	return count, err
}

// HasLiked checks whether liker has liked liked.
//
// Example:
//
//	repo.HasLiked(ctx, "b@uni.edu", "a@uni.edu") // -> true if b liked a back
func (r *LikeRepository) HasLiked(ctx context.Context, liker, liked string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("liker_email = ? AND liked_email = ?", liker, liked).
		Count(&count).Error
	return count > 0, err
}

// MutualMatches returns every user that email liked and who liked email back.
// Results are distinct and ordered by email.
func (r *LikeRepository) MutualMatches(ctx context.Context, email string) ([]string, error) {
	var emails []string
	err := r.db.WithContext(ctx).
		Table("likes l").
		Distinct("l.liked_email").
		Joins("JOIN likes back ON back.liker_email = l.liked_email AND back.liked_email = l.liker_email").
		Where("l.liker_email = ?", email).
		Order("l.liked_email").
		Pluck("l.liked_email", &emails).Error
	return emails, err
}

// GetNewLikers returns likes received by email that have not been returned.
//
// Behavior:
//   - Only likes where liked_email = X are considered.
//   - Excludes mutual likes (X already liked them back).
//   - Excludes pairs with a block in either direction.
//   - Ordered by created_at DESC, liker_email DESC.
//   - Supports cursor-based pagination via paginationToken.
func (r *LikeRepository) GetNewLikers(
	ctx context.Context,
	email string,
	paginationToken *string,
	limit int,
) ([]db.Like, *string, error) {
	var likes []db.Like

	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.pendingLikes(ctx, email).
		Order("l.created_at DESC, l.liker_email DESC").
		Limit(limit + 1)

	// apply cursor
	if cursor.Email != "" && cursor.CreatedUnix > 0 {
		ts := time.UnixMilli(cursor.CreatedUnix).UTC()
		query = query.Where(
			"(l.created_at < ? OR (l.created_at = ? AND l.liker_email < ?))",
			ts, ts, cursor.Email,
		)
	}

	if err := query.Find(&likes).Error; err != nil {
		return nil, nil, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(likes) > limit {
		last := likes[limit-1]
		nextToken = pagination.Token(pagination.Cursor{
			Email:       last.LikerEmail,
			CreatedUnix: last.CreatedAt.UnixMilli(),
		})
		likes = likes[:limit]
	}

	return likes, nextToken, nil
}

// CountLikers returns how many likes GetNewLikers would list for email in total:
// likes not yet returned, blocked pairs excluded.
// Used in conjunction with the Redis cache (DB is fallback).
func (r *LikeRepository) CountLikers(ctx context.Context, email string) (int64, error) {
	var count int64
	err := r.pendingLikes(ctx, email).Count(&count).Error
	return count, err
}

// pendingLikes selects likes l received by email that email has not returned
// and that no block between the two suppresses.
func (r *LikeRepository) pendingLikes(ctx context.Context, email string) *gorm.DB {
	likedBack := r.db.
		Table("likes").
		Select("1").
		Where("liker_email = l.liked_email AND liked_email = l.liker_email")

	return r.db.WithContext(ctx).
		Table("likes l").
		Where("l.liked_email = ? AND NOT EXISTS (?)", email, likedBack).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM blocks b
				WHERE (b.blocker_email = l.liked_email AND b.blocked_email = l.liker_email)
				   OR (b.blocker_email = l.liker_email AND b.blocked_email = l.liked_email)
			)`)
}

// RemovePair deletes the likes in both directions between a and b.
func (r *LikeRepository) RemovePair(ctx context.Context, a, b string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("(liker_email = ? AND liked_email = ?) OR (liker_email = ? AND liked_email = ?)", a, b, b, a).
		Delete(&db.Like{})
	return res.RowsAffected, res.Error
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
