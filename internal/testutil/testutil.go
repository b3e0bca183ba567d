// Package testutil wires isolated SQLite + miniredis dependencies for tests.
package testutil

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oggyb/campusmatch/internal/app"
	"github.com/oggyb/campusmatch/internal/cache"
	"github.com/oggyb/campusmatch/internal/config"
	"github.com/oggyb/campusmatch/internal/db"
)

// NewDB spins up a private in-memory SQLite database with the full schema.
// A single connection is kept so every statement sees the same memory DB.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=0", name)
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC() },
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Discard,
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(database))
	return database
}

// NewRedis starts a miniredis instance and returns a cache bound to it.
func NewRedis(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := &config.Config{}
	cfg.Redis.Addr = mr.Addr()
	rc := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = rc.Close() })
	return rc, mr
}

// DiscardLogger drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewAppContext wires DB, Redis and a silent logger. Each test gets its own.
func NewAppContext(t *testing.T) *app.AppContext {
	t.Helper()
	rc, _ := NewRedis(t)
	return app.New(NewDB(t), rc, DiscardLogger())
}

// SeedUsers inserts users with the given emails. Names default to the local part.
func SeedUsers(t *testing.T, gdb *gorm.DB, emails ...string) {
	t.Helper()
	for _, e := range emails {
		name := e
		if at := strings.IndexByte(e, '@'); at > 0 {
			name = e[:at]
		}
		require.NoError(t, gdb.Create(&db.User{
			Email:  e,
			Name:   name,
			Photos: []string{"https://img.test/" + name + ".jpg"},
		}).Error)
	}
}

// Like inserts raw like rows, liker -> liked.
func Like(t *testing.T, gdb *gorm.DB, pairs ...[2]string) {
	t.Helper()
	for _, p := range pairs {
		require.NoError(t, gdb.Create(&db.Like{LikerEmail: p[0], LikedEmail: p[1]}).Error)
	}
}
