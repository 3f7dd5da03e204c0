package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"

	"identity_backend/internal/app/config"
	"identity_backend/internal/app/di"
	"identity_backend/internal/app/router"
	"identity_backend/internal/platform/db"
	platformhandler "identity_backend/internal/platform/http/handler"
	jwtmw "identity_backend/internal/platform/jwt"
	"identity_backend/internal/platform/password"
	infraredis "identity_backend/internal/platform/redis"
)

func main() {
	// .envを読み込む
	if err := godotenv.Load(".env"); err != nil {
		slog.Info(".env not found; using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	// db
	gdb, err := db.OpenDB(cfg.DB)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}

	// Redis
	var rdb *redisv9.Client
	var cachePing platformhandler.PingFunc
	if !cfg.Redis.Enabled() {
		slog.Warn("REDIS_HOST is not set. Running without cache.")
	} else if tmp, err := infraredis.NewRedisClient(context.Background(), cfg.Redis); err != nil {
		slog.Warn("Redis unavailable. Running without cache.", "error", err)
	} else {
		rdb = tmp
		cachePing = infraredis.Pinger(rdb)
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("Failed to close Redis client", "error", err)
			}
		}()
	}

	hasher, err := password.NewScrypt(password.DefaultConfig())
	if err != nil {
		slog.Error("invalid password hasher configuration", "error", err)
		os.Exit(1)
	}
	tokens, err := jwtmw.NewTokenService(cfg.JWTSecret, cfg.JWTExpiration)
	if err != nil {
		slog.Error("invalid token configuration", "error", err)
		os.Exit(1)
	}

	// Repository → Usecase → Handler
	users := di.NewUserHandler(di.NewUserRepository(gdb, rdb, cfg.UserCacheTTL), hasher, tokens)
	health := platformhandler.NewHealthHandler(db.Pinger(gdb), cachePing)

	// ルータ生成
	r := router.NewRouter(users, health, tokens, logger)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
