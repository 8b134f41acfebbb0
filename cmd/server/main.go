package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/secret-tech/aag-backend-go/internal/call"
	"github.com/secret-tech/aag-backend-go/internal/config"
	"github.com/secret-tech/aag-backend-go/internal/httpserver"
	"github.com/secret-tech/aag-backend-go/internal/logger"
	"github.com/secret-tech/aag-backend-go/internal/notify"
	"github.com/secret-tech/aag-backend-go/internal/security"
	"github.com/secret-tech/aag-backend-go/internal/service"
	mongostore "github.com/secret-tech/aag-backend-go/internal/store/mongo"
	"github.com/secret-tech/aag-backend-go/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logg, err := logger.New(cfg.IsProduction())
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logg.Sync()

	ctx := context.Background()

	db, err := mongostore.Open(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logg.Fatalw("failed to open mongo", "err", err)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Client().Disconnect(disconnectCtx)
	}()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()

	userRepo := mongostore.NewUserRepo(db)
	msgRepo := mongostore.NewMessageRepo(db)

	tokens := security.NewTokenService(cfg.JWTSecret, time.Duration(cfg.AccessTokenMinutes)*time.Minute)
	chatSvc := service.NewChatService(userRepo, msgRepo, logg, cfg.MessagePageSize)
	userSvc := service.NewUserService(userRepo)
	queue := notify.NewQueue(rdb, logg)

	hub := ws.NewHub()
	tracker := call.NewTracker(cfg.CallRingTTL)
	router := ws.NewRouter(hub, tracker, chatSvc, userSvc, tokens, queue, logg, cfg.CORSOrigins)

	handler := httpserver.NewRouter(cfg, logg, tokens, userSvc, chatSvc, router.Handler())

	srv := &http.Server{
		Addr:        cfg.HTTPAddr(),
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logg.Infow("starting realtime server", "addr", cfg.HTTPAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Fatalw("server error", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logg.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Warnw("graceful shutdown failed", "err", err)
	}
}
