package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/campusmatch/internal/db"
)

// SimilarityRepository stores what a matched pair has in common.
type SimilarityRepository struct {
	db *gorm.DB
}

func NewSimilarityRepository(database *gorm.DB) *SimilarityRepository {
	return &SimilarityRepository{db: database}
}

// Save overwrites the record for s.RoomID.
func (r *SimilarityRepository) Save(ctx context.Context, s *db.Similarity) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "room_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"interests", "answers", "updated_at"}),
		}).
		Create(s).Error
}

// GetMany loads the records of the given rooms keyed by room id.
func (r *SimilarityRepository) GetMany(ctx context.Context, roomIDs []string) (map[string]db.Similarity, error) {
	out := make(map[string]db.Similarity, len(roomIDs))
	if len(roomIDs) == 0 {
		return out, nil
	}
	var rows []db.Similarity
	if err := r.db.WithContext(ctx).Where("room_id IN ?", roomIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, s := range rows {
		out[s.RoomID] = s
	}
	return out, nil
}

// Delete removes the record for the room if present.
func (r *SimilarityRepository) Delete(ctx context.Context, roomID string) error {
	return r.db.WithContext(ctx).Where("room_id = ?", roomID).Delete(&db.Similarity{}).Error
}
