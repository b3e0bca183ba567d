package app

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/campusmatch/internal/cache"
	"github.com/oggyb/campusmatch/internal/db"
	"github.com/oggyb/campusmatch/internal/repository"
	"github.com/oggyb/campusmatch/internal/ws"
)

// SafetyEventSink records panic and location events and lists them back to
// their owner, newest first.
type SafetyEventSink interface {
	RecordSafetyEvent(ctx context.Context, ev *db.SafetyEvent) error
	ListSafetyEvents(ctx context.Context, email string, limit int) ([]db.SafetyEvent, error)
}

// AppContext holds shared dependencies (DB, Redis, Logger, relay hub, etc.)
type AppContext struct {
	DB           *gorm.DB
	RedisCache   *cache.RedisCache
	Logger       *slog.Logger
	Hub          *ws.Hub
	SafetyEvents SafetyEventSink
}

// New creates a new AppContext.
// Safety events go to SQL and the hub accepts any origin until overridden.
func New(database *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger) *AppContext {
	return &AppContext{
		DB:           database,
		RedisCache:   rdb,
		Logger:       logger,
		Hub:          ws.NewHub(logger, nil),
		SafetyEvents: repository.NewSafetyRepository(database),
	}
}
