// Package mongostore is the optional MongoDB sink for safety events.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/oggyb/campusmatch/internal/config"
	"github.com/oggyb/campusmatch/internal/db"
)

// SafetyEventsCollection holds one document per panic/location event.
const SafetyEventsCollection = "safety_events"

// ClientOptions builds driver options from config. The URI is mandatory.
func ClientOptions(cfg *config.Config) (*options.ClientOptions, error) {
	if cfg.Mongo.URI == "" {
		return nil, errors.New("mongo uri is required")
	}
	opts := options.Client().ApplyURI(cfg.Mongo.URI)
	if cfg.Mongo.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(uint64(cfg.Mongo.MaxPoolSize))
	}
	return opts, opts.Validate()
}

// Store writes safety events to MongoDB.
type Store struct {
	client *mongo.Client
	events *mongo.Collection
}

// Connect dials MongoDB, pings it and prepares the events collection.
func Connect(ctx context.Context, cfg *config.Config) (*Store, error) {
	opts, err := ClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	cli, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := cli.Ping(ctx, nil); err != nil {
		_ = cli.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	events := cli.Database(cfg.Mongo.Database).Collection(SafetyEventsCollection)
	_, err = events.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_email", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		_ = cli.Disconnect(ctx)
		return nil, fmt.Errorf("failed to index %s: %w", SafetyEventsCollection, err)
	}
	return &Store{client: cli, events: events}, nil
}

// RecordSafetyEvent inserts the event. ID must be set by the caller.
func (s *Store) RecordSafetyEvent(ctx context.Context, ev *db.SafetyEvent) error {
	_, err := s.events.InsertOne(ctx, ev)
	return err
}

// ListSafetyEvents returns the user's events newest first.
func (s *Store) ListSafetyEvents(ctx context.Context, email string, limit int) ([]db.SafetyEvent, error) {
	cur, err := s.events.Find(ctx,
		bson.M{"user_email": email},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, err
	}
	var out []db.SafetyEvent
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
