package db

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/campusmatch/internal/cohort"
	"github.com/oggyb/campusmatch/internal/logger"
	"github.com/oggyb/campusmatch/internal/room"
)

var seedInterests = []string{
	"music", "hiking", "coding", "football", "photography", "chess",
	"dance", "films", "cooking", "travel", "gaming", "poetry",
}

var seedQuestions = []string{
	"ideal_weekend", "night_owl", "favourite_cuisine", "pets",
}

var seedDomains = []string{"iiitd.ac.in", "du.ac.in", "stanford.edu"}

// SeedTestData resets the database and populates it with demo data.
//
// Behavior:
//  1. Clears every table.
//  2. Creates 20 users spread over three campus domains with fake profiles.
//  3. Generates ~200 likes (~70% density) and makes every 3rd pair mutual.
//  4. Starts a short conversation in some mutual pairs and posts confessions.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	faker := gofakeit.New(time.Now().UnixNano())

	if err := clearAll(db); err != nil {
		return err
	}
	logger.Info("cleared existing data")

	users := make([]User, 0, 20)
	for i := 1; i <= 20; i++ {
		domain := seedDomains[i%len(seedDomains)]
		email := fmt.Sprintf("%d%03d@%s", 2021+i%4, i, domain)

		interests := make([]string, 0, 4)
		for _, j := range r.Perm(len(seedInterests))[:4] {
			interests = append(interests, seedInterests[j])
		}
		answers := map[string]string{}
		for _, q := range seedQuestions {
			answers[q] = faker.RandomString([]string{"yes", "no", "sometimes"})
		}

		users = append(users, User{
			Email:          email,
			Name:           faker.Name(),
			Bio:            faker.Sentence(12),
			Interests:      interests,
			Photos:         []string{fmt.Sprintf("https://picsum.photos/seed/%s/600/800", faker.UUID())},
			Answers:        answers,
			TrustedContact: faker.Email(),
		})
	}
	if err := db.Create(&users).Error; err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	logger.Info("seeded users", "count", len(users))

	counter := 0
	for i, actor := range users {
		for j := 0; j < 12; j++ {
			k := r.Intn(len(users))
			if k == i {
				continue
			}
			recipient := users[k]
			if r.Intn(100) >= 70 && counter%3 != 0 {
				continue
			}

			if err := upsertLike(db, actor.Email, recipient.Email); err != nil {
				return fmt.Errorf("failed to seed like: %w", err)
			}
			if counter%3 == 0 {
				if err := upsertLike(db, recipient.Email, actor.Email); err != nil {
					return fmt.Errorf("failed to seed like: %w", err)
				}
				if counter%2 == 0 {
					if err := seedConversation(db, faker, actor.Email, recipient.Email); err != nil {
						return err
					}
				}
			}
			counter++
		}
	}
	logger.Info("seeded likes", "count", counter)

	for i := 0; i < 15; i++ {
		author := users[r.Intn(len(users))]
		c := Confession{
			ID:        uuid.NewString(),
			Text:      faker.Sentence(20),
			Group:     cohort.GroupFor(author.Email),
			UserEmail: author.Email,
		}
		if err := db.Create(&c).Error; err != nil {
			return fmt.Errorf("failed to seed confession: %w", err)
		}
	}
	logger.Info("seeded confessions")

	return nil
}

func clearAll(db *gorm.DB) error {
	tables := []string{
		"comment_reactions", "comments", "confession_reactions", "confessions",
		"message_reactions", "messages", "similarities", "likes", "reports",
		"blocks", "safety_events", "users",
	}
	for _, t := range tables {
		if err := db.Exec("DELETE FROM " + t).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", t, err)
		}
	}
	return nil
}

func upsertLike(db *gorm.DB, liker, liked string) error {
	return db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&Like{LikerEmail: liker, LikedEmail: liked}).Error
}

func seedConversation(db *gorm.DB, faker *gofakeit.Faker, a, b string) error {
	roomID := room.ID(a, b)
	msgs := []Message{
		{RoomID: roomID, Sender: SystemSender, Receiver: a, Text: "You matched! Say hi."},
		{RoomID: roomID, Sender: a, Receiver: b, Text: faker.Sentence(6)},
		{RoomID: roomID, Sender: b, Receiver: a, Text: faker.Sentence(8)},
	}
	if err := db.Create(&msgs).Error; err != nil {
		return fmt.Errorf("failed to seed messages: %w", err)
	}
	return nil
}
