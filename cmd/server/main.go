package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/campusmatch/internal/app"
	"github.com/oggyb/campusmatch/internal/cache"
	"github.com/oggyb/campusmatch/internal/config"
	"github.com/oggyb/campusmatch/internal/db"
	"github.com/oggyb/campusmatch/internal/logger"
	"github.com/oggyb/campusmatch/internal/mongostore"
	"github.com/oggyb/campusmatch/internal/server"
	"github.com/oggyb/campusmatch/internal/service/chat"
	"github.com/oggyb/campusmatch/internal/service/feed"
	"github.com/oggyb/campusmatch/internal/service/matching"
	"github.com/oggyb/campusmatch/internal/service/moderation"
	"github.com/oggyb/campusmatch/internal/service/profile"
	"github.com/oggyb/campusmatch/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		os.Exit(1)
	}
	defer redisCache.Close()

	appCtx := app.New(database, redisCache, log)
	appCtx.Hub = ws.NewHub(log, cfg.WS.AllowedOrigins)
	if err := appCtx.Hub.EnableBridge(ctx, redisCache); err != nil {
		log.Error("failed to subscribe to room channels", "err", err)
		os.Exit(1)
	}

	if cfg.Mongo.URI != "" {
		store, err := mongostore.Connect(ctx, cfg)
		if err != nil {
			log.Error("failed to connect to mongo", "err", err)
			os.Exit(1)
		}
		defer store.Close(context.Background())
		appCtx.SafetyEvents = store
		log.Info("safety events go to mongo", "db", cfg.Mongo.Database)
	}

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	matchRegistrar := matching.NewRegistrar(appCtx)
	router := server.NewRouter(log,
		matchRegistrar,
		profile.NewRegistrar(appCtx),
		chat.NewRegistrar(appCtx),
		moderation.NewRegistrar(appCtx),
		feed.NewRegistrar(appCtx),
	)
	httpServer := server.NewHTTPServer(cfg, router)
	grpcServer, healthServer := server.NewGRPCServer(matchRegistrar)

	errCh := make(chan error, 2)
	go func() {
		log.Info("starting HTTP server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		log.Info("starting gRPC server", "addr", cfg.GRPC.Host+":"+cfg.GRPC.Port)
		if err := server.StartGRPCServer(cfg, grpcServer); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		log.Error("server failed", "err", err)
	}

	healthServer.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", "err", err)
	}
	grpcServer.GracefulStop()
}
