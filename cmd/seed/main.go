package main

import (
	"os"

	"github.com/oggyb/campusmatch/internal/config"
	"github.com/oggyb/campusmatch/internal/db"
	"github.com/oggyb/campusmatch/internal/logger"
)

func main() {
	cfg := config.New()
	logger.InitFromConfig(cfg)
	log := logger.With("cmd", "seed")

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	if err := db.SeedTestData(database); err != nil {
		log.Error("failed to seed", "err", err)
		os.Exit(1)
	}

	log.Info("seeding completed", "driver", cfg.DB.Driver)
}
