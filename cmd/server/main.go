package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mathvisuals/account-api/internal/api"
	"github.com/mathvisuals/account-api/internal/core/domain"
	"github.com/mathvisuals/account-api/internal/core/service"
	"github.com/mathvisuals/account-api/internal/infrastructure/config"
	mongodb "github.com/mathvisuals/account-api/internal/infrastructure/db/mongo"
	redisdb "github.com/mathvisuals/account-api/internal/infrastructure/db/redis"
	"github.com/mathvisuals/account-api/internal/infrastructure/notify"
	"github.com/mathvisuals/account-api/internal/infrastructure/queue"
	"github.com/mathvisuals/account-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- MongoDB ---
	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		if err := mongodb.Disconnect(context.Background(), client); err != nil {
			log.Warn().Err(err).Msg("mongodb disconnect failed")
		}
	}()
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")

	accountRepo := mongodb.NewAccountRepository(db, cfg.LoginMode)
	if err := accountRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create indexes")
	}

	// --- Redis ---
	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()
	log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")

	// --- Notification pipeline ---
	mailer := notify.NewMailer(notify.Config{
		Domain:  cfg.Mailgun.Domain,
		APIKey:  cfg.Mailgun.APIKey,
		Sender:  cfg.Mailgun.Sender,
		BaseURL: cfg.BaseURL,
	})
	dispatcher := queue.NewDispatcher(cfg.NotifyWorkers, mailer, redisdb.NewSendGuard(rdb), log)
	dispatcher.Start(ctx)

	// --- HTTP server ---
	opts := service.Options{
		LoginMode:           service.LoginMode(cfg.LoginMode),
		RequireVerification: cfg.RequireVerification,
		BcryptCost:          cfg.BcryptCost,
		Password: domain.PasswordPolicy{
			MinLength: cfg.PasswordMinLen,
			MaxLength: cfg.PasswordMaxLen,
		},
	}
	e := api.NewRouter(db, rdb, dispatcher, opts, log)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	cancel() // stops dispatcher workers
	log.Info().Msg("server exited")
}
