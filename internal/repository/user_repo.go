package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/campusmatch/internal/db"
	"github.com/oggyb/campusmatch/internal/utils/pagination"
)

// UserRepository wraps profile reads and writes.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// Upsert inserts the profile or overwrites every column of an existing one.
// CreatedAt of an existing row is kept.
func (r *UserRepository) Upsert(ctx context.Context, u *db.User) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "bio", "interests", "photos", "answers", "trusted_contact", "updated_at",
			}),
		}).
		Create(u).Error
}

// GetByEmail returns gorm.ErrRecordNotFound when no profile exists.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).Take(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetProfiles loads the given users ordered by email. Unknown emails are skipped.
func (r *UserRepository) GetProfiles(ctx context.Context, emails []string) ([]db.User, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	var users []db.User
	err := r.db.WithContext(ctx).
		Where("email IN ?", emails).
		Order("email").
		Find(&users).Error
	return users, err
}

// AddPhoto appends url to the user's photos unless it is already there.
//
// Behavior:
//   - Returns gorm.ErrRecordNotFound for an unknown user.
//   - Returns the stored profile after the update.
func (r *UserRepository) AddPhoto(ctx context.Context, email, url string) (*db.User, error) {
	u, err := r.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	for _, p := range u.Photos {
		if p == url {
			return u, nil
		}
	}
	u.Photos = append(u.Photos, url)
	if err := r.db.WithContext(ctx).Model(u).Select("photos").Updates(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// ListDiscoverable returns profiles email can still swipe on.
//
// Behavior:
//   - Excludes email itself and users it already liked.
//   - Excludes pairs with a block in either direction.
//   - Ordered by email ASC; the cursor carries the last returned email.
func (r *UserRepository) ListDiscoverable(
	ctx context.Context,
	email string,
	paginationToken *string,
	limit int,
) ([]db.User, *string, error) {
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Table("users u").
		Where("u.email <> ?", email).
		Where("NOT EXISTS (SELECT 1 FROM likes l WHERE l.liker_email = ? AND l.liked_email = u.email)", email).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM blocks b
				WHERE (b.blocker_email = ? AND b.blocked_email = u.email)
				   OR (b.blocker_email = u.email AND b.blocked_email = ?)
			)`, email, email).
		Order("u.email ASC").
		Limit(limit + 1)

	if cursor.Email != "" {
		query = query.Where("u.email > ?", cursor.Email)
	}

	var users []db.User
	if err := query.Find(&users).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(users) > limit {
		nextToken = pagination.Token(pagination.Cursor{Email: users[limit-1].Email})
		users = users[:limit]
	}
	return users, nextToken, nil
}
