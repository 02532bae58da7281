package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/loanpro/lending-system/internal/api"
	"github.com/loanpro/lending-system/internal/core/service"
	"github.com/loanpro/lending-system/internal/infrastructure/config"
	mongodb "github.com/loanpro/lending-system/internal/infrastructure/db/mongo"
	redisdb "github.com/loanpro/lending-system/internal/infrastructure/db/redis"
	"github.com/loanpro/lending-system/internal/infrastructure/queue"
	"github.com/loanpro/lending-system/pkg/logger"

	_ "github.com/loanpro/lending-system/docs" // swagger docs registration
)

const shutdownTimeout = 10 * time.Second

// @title           Lending System API
// @version         1.0
// @description     Loan application intake, eligibility scoring and review lifecycle.
// @BasePath        /
// @securityDefinitions.apikey  BearerAuth
// @in              header
// @name            Authorization
func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	appRepo := mongodb.NewApplicationRepository(db)
	if err := appRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure indexes")
	}
	authRepo := mongodb.NewAuthRepository(db)
	if err := authRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure user indexes")
	}
	outbox := mongodb.NewNotificationRepository(db)

	notifier := service.NewNotificationService(outbox, log)
	dispatcher := queue.NewDispatcher(cfg.NotificationWorkers, notifier, log)
	dispatcher.Start(ctx)

	locker := redisdb.NewLocker(rdb)
	scorer := service.NewEligibilityScorer()
	appService := service.NewApplicationService(appRepo, scorer, locker, dispatcher, log)
	authService := service.NewAuthService(authRepo, cfg.JWTSecret, 24*time.Hour)

	e := api.NewRouter(api.RouterDeps{
		DB:           db,
		Redis:        rdb,
		JWTSecret:    cfg.JWTSecret,
		Applications: appService,
		Auth:         authService,
		Logger:       log,
	})

	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
