package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/tresh-api/internal/config"
	"github.com/iliyamo/tresh-api/internal/database"
	"github.com/iliyamo/tresh-api/internal/handler"
	"github.com/iliyamo/tresh-api/internal/logging"
	"github.com/iliyamo/tresh-api/internal/queue"
	"github.com/iliyamo/tresh-api/internal/repository"
	"github.com/iliyamo/tresh-api/internal/router"
	"github.com/iliyamo/tresh-api/internal/service"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, database.Settings{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	// Redis is optional: without it the rate limiter and cache pass through.
	var rdb *redis.Client
	if c, err := config.NewRedisClient(ctx, config.LoadRedisConfig()); err != nil {
		logger.Warn(ctx, "redis unavailable, rate limiting and cache disabled", "err", err)
	} else {
		rdb = c
		defer rdb.Close()
	}

	var events service.EventPublisher = service.NopPublisher{}
	qcfg := config.LoadQueueConfig()
	if qcfg.Enabled {
		pub := service.NewAMQPPublisher(qcfg, logger)
		defer pub.Close()
		events = pub
		go func() {
			if err := queue.StartAuditConsumer(ctx, qcfg, logger); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error(ctx, "audit consumer stopped", "err", err)
			}
		}()
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	items := repository.NewItemRepo(db)

	auth := service.NewAuthService(users, tokens, cfg.JWT(), cfg.BcryptCost, events, logger)
	if cfg.ReaperInterval > 0 {
		go service.NewReaper(tokens, cfg.ReaperInterval, logger).Run(ctx)
	}

	e := router.New(router.Deps{
		Auth:      handler.NewAuthHandler(auth, logger),
		Todo:      handler.NewTodoHandler(items, logger),
		DB:        db,
		JWTSecret: cfg.JWT().Secret,
		Redis:     rdb,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
		Log:       logger,
	})

	addr := ":" + cfg.Port
	go func() {
		logger.Info(ctx, "listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "shutdown", "err", err)
	}
	logger.Info(shutdownCtx, "server stopped")
}
