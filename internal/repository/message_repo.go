package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/campusmatch/internal/db"
)

// MessageRepository persists chat messages and their reactions.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(database *gorm.DB) *MessageRepository {
	return &MessageRepository{db: database}
}

// Create stores m and fills in ID and CreatedAt.
func (r *MessageRepository) Create(ctx context.Context, m *db.Message) error {
	if m.Status == "" {
		m.Status = db.MessageStatusSent
	}
	return r.db.WithContext(ctx).Create(m).Error
}

// GetByID loads a message with its reactions.
func (r *MessageRepository) GetByID(ctx context.Context, id uint64) (*db.Message, error) {
	var m db.Message
	err := r.db.WithContext(ctx).
		Preload("Reactions", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at, emoji, user_email") }).
		Where("id = ?", id).
		Take(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// History returns every message of the room oldest first. Messages sharing a
// timestamp keep insertion order.
func (r *MessageRepository) History(ctx context.Context, roomID string) ([]db.Message, error) {
	var msgs []db.Message
	err := r.db.WithContext(ctx).
		Preload("Reactions", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at, emoji, user_email") }).
		Where("room_id = ?", roomID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	return msgs, err
}

// CountDistinctSenders counts the participants who wrote in the room,
// automated system messages excluded.
func (r *MessageRepository) CountDistinctSenders(ctx context.Context, roomID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Message{}).
		Where("room_id = ? AND sender <> ?", roomID, db.SystemSender).
		Distinct("sender").
		Count(&count).Error
	return count, err
}

// DeleteRoom removes every message of the room together with its reactions.
func (r *MessageRepository) DeleteRoom(ctx context.Context, roomID string) (int64, error) {
	ids := r.db.Model(&db.Message{}).Select("id").Where("room_id = ?", roomID)
	if err := r.db.WithContext(ctx).
		Where("message_id IN (?)", ids).
		Delete(&db.MessageReaction{}).Error; err != nil {
		return 0, err
	}
	res := r.db.WithContext(ctx).Where("room_id = ?", roomID).Delete(&db.Message{})
	return res.RowsAffected, res.Error
}

// AddReaction is idempotent per (message, emoji, user).
func (r *MessageRepository) AddReaction(ctx context.Context, messageID uint64, emoji, email string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&db.MessageReaction{MessageID: messageID, Emoji: emoji, UserEmail: email}).Error
}

// RemoveReaction deletes the reaction if present.
func (r *MessageRepository) RemoveReaction(ctx context.Context, messageID uint64, emoji, email string) error {
	return r.db.WithContext(ctx).
		Where("message_id = ? AND emoji = ? AND user_email = ?", messageID, emoji, email).
		Delete(&db.MessageReaction{}).Error
}

// MarkRead flips every unread message from sender to reader in the room to read.
// Returns how many rows changed.
func (r *MessageRepository) MarkRead(ctx context.Context, roomID, sender, reader string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Message{}).
		Where("room_id = ? AND sender = ? AND receiver = ? AND status <> ?", roomID, sender, reader, db.MessageStatusRead).
		Update("status", db.MessageStatusRead)
	return res.RowsAffected, res.Error
}
