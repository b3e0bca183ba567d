package db

import (
	"time"
)

// SystemSender is the reserved sender of automated chat messages. It never
// counts towards active-chat classification.
const SystemSender = "system"

const (
	MessageStatusSent = "sent"
	MessageStatusRead = "read"

	ReportStatusPending = "pending"

	SafetyEventPanic    = "panic"
	SafetyEventLocation = "location"
)

// User is a profile keyed by email (case-sensitive as stored).
// Photos[0] is the primary photo.
type User struct {
	Email          string            `gorm:"primaryKey;size:191"`
	Name           string            `gorm:"size:128;not null"`
	Bio            string            `gorm:"type:text"`
	Interests      []string          `gorm:"serializer:json;type:text"`
	Photos         []string          `gorm:"serializer:json;type:text"`
	Answers        map[string]string `gorm:"serializer:json;type:text"`
	TrustedContact string            `gorm:"size:191"`
	CreatedAt      time.Time         `gorm:"autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"autoUpdateTime"`
}

// PrimaryPhoto returns the first photo URL or "".
func (u *User) PrimaryPhoto() string {
	if len(u.Photos) == 0 {
		return ""
	}
	return u.Photos[0]
}

// Like is one direction of interest: LikerEmail liked LikedEmail.
//
// Composite PK: (LikerEmail, LikedEmail)
//   - Suppresses duplicate likes.
//
// Indexes:
//   - idx_liked_created(liked_email, created_at DESC)
//     Serves "who liked me" lists newest first.
type Like struct {
	LikerEmail string    `gorm:"primaryKey;size:191"`
	LikedEmail string    `gorm:"primaryKey;size:191;index:idx_liked_created,priority:1"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index:idx_liked_created,priority:2,sort:desc"`
}

// SharedAnswer is an onboarding question both users answered identically.
type SharedAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Similarity caches what a matched pair has in common, keyed by room id.
type Similarity struct {
	RoomID    string         `gorm:"primaryKey;size:384"`
	Interests []string       `gorm:"serializer:json;type:text"`
	Answers   []SharedAnswer `gorm:"serializer:json;type:text"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

// Message is a persisted chat message. RoomID is always room.ID(Sender, Receiver).
type Message struct {
	ID        uint64            `gorm:"primaryKey;autoIncrement"`
	RoomID    string            `gorm:"size:384;not null;index:idx_room_created,priority:1"`
	Sender    string            `gorm:"size:191;not null"`
	Receiver  string            `gorm:"size:191;not null"`
	Text      string            `gorm:"type:text;not null"`
	Status    string            `gorm:"size:16;not null;default:sent"`
	CreatedAt time.Time         `gorm:"autoCreateTime;index:idx_room_created,priority:2"`
	Reactions []MessageReaction `gorm:"foreignKey:MessageID"`
}

// MessageReaction records that UserEmail reacted to a message with Emoji.
type MessageReaction struct {
	MessageID uint64    `gorm:"primaryKey"`
	Emoji     string    `gorm:"primaryKey;size:32"`
	UserEmail string    `gorm:"primaryKey;size:191"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Confession is an anonymous post. UserEmail is the author and must never be
// serialised to clients.
type Confession struct {
	ID        string               `gorm:"primaryKey;size:36"`
	Text      string               `gorm:"type:text;not null"`
	Group     string               `gorm:"column:cohort;size:64;not null;index:idx_cohort_created,priority:1"`
	UserEmail string               `gorm:"size:191;not null;index"`
	CreatedAt time.Time            `gorm:"autoCreateTime;index:idx_cohort_created,priority:2,sort:desc;index"`
	Comments  []Comment            `gorm:"foreignKey:ConfessionID"`
	Reactions []ConfessionReaction `gorm:"foreignKey:ConfessionID"`
}

// ConfessionReaction records one user's emoji on a confession.
type ConfessionReaction struct {
	ConfessionID string    `gorm:"primaryKey;size:36"`
	Emoji        string    `gorm:"primaryKey;size:32"`
	UserEmail    string    `gorm:"primaryKey;size:191"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

// Comment is embedded in a confession's thread.
type Comment struct {
	ID           string            `gorm:"primaryKey;size:36"`
	ConfessionID string            `gorm:"size:36;not null;index"`
	UserEmail    string            `gorm:"size:191;not null"`
	UserName     string            `gorm:"size:128"`
	Text         string            `gorm:"type:text;not null"`
	CreatedAt    time.Time         `gorm:"autoCreateTime"`
	Reactions    []CommentReaction `gorm:"foreignKey:CommentID"`
}

// CommentReaction records that UserEmail reacted to a comment.
type CommentReaction struct {
	CommentID string    `gorm:"primaryKey;size:36"`
	UserEmail string    `gorm:"primaryKey;size:191"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Report targets either a user or a confession, never both.
//
// idx_reporter_confession is unique: one report per (reporter, confession).
// User reports leave ConfessionID NULL, which the index does not constrain.
type Report struct {
	ID                string    `gorm:"primaryKey;size:36"`
	ReporterEmail     string    `gorm:"size:191;not null;uniqueIndex:idx_reporter_confession,priority:1"`
	ReportedUserEmail *string   `gorm:"size:191;index"`
	ConfessionID      *string   `gorm:"size:36;uniqueIndex:idx_reporter_confession,priority:2;index"`
	Reason            string    `gorm:"size:64;not null"`
	Details           string    `gorm:"type:text"`
	Status            string    `gorm:"size:16;not null;default:pending"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
}

// Block is directional: BlockerEmail hides BlockedEmail.
type Block struct {
	BlockerEmail string    `gorm:"primaryKey;size:191"`
	BlockedEmail string    `gorm:"primaryKey;size:191;index"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

// SafetyEvent is a panic or location-share event. TrustedContact is copied
// from the user's profile when the event is recorded.
type SafetyEvent struct {
	ID             string    `gorm:"primaryKey;size:36" bson:"_id"`
	Kind           string    `gorm:"size:16;not null" bson:"kind"`
	UserEmail      string    `gorm:"size:191;not null;index" bson:"user_email"`
	TrustedContact string    `gorm:"size:191" bson:"trusted_contact"`
	Latitude       *float64  `bson:"latitude,omitempty"`
	Longitude      *float64  `bson:"longitude,omitempty"`
	Note           string    `gorm:"type:text" bson:"note,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" bson:"created_at"`
}

// Models lists every table for AutoMigrate.
func Models() []any {
	return []any{
		&User{},
		&Like{},
		&Similarity{},
		&Message{},
		&MessageReaction{},
		&Confession{},
		&ConfessionReaction{},
		&Comment{},
		&CommentReaction{},
		&Report{},
		&Block{},
		&SafetyEvent{},
	}
}
