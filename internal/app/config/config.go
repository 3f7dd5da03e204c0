// Package config はアプリケーション全体の設定を環境変数から組み立てます。
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"identity_backend/internal/platform/cache"
	"identity_backend/internal/platform/db"
	jwtmw "identity_backend/internal/platform/jwt"
	"identity_backend/internal/platform/redis"
)

// ErrMissingJWTSecret is returned when JWT_SECRET is not set.
var ErrMissingJWTSecret = errors.New("JWT_SECRET is not set")

// Config はサーバー起動に必要な設定をまとめたものです。
type Config struct {
	Port          string
	JWTSecret     string
	JWTExpiration time.Duration
	UserCacheTTL  time.Duration
	LogLevel      slog.Level
	DB            db.Config
	Redis         redis.Config
}

// Load は環境変数から設定を読み込みます。
// JWT_SECRETが未設定の場合や、期間・ログレベルの値が不正な場合はエラーを返します。
func Load() (Config, error) {
	cfg := Config{
		Port:  envOr("PORT", "8080"),
		DB:    db.LoadConfigFromEnv(),
		Redis: redis.LoadConfigFromEnv(),
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return Config{}, ErrMissingJWTSecret
	}

	var err error
	if cfg.JWTExpiration, err = durationOr("JWT_EXPIRATION", jwtmw.DefaultExpiration); err != nil {
		return Config{}, err
	}
	if cfg.UserCacheTTL, err = durationOr("USER_CACHE_TTL", cache.DefaultUserTTL); err != nil {
		return Config{}, err
	}
	if cfg.LogLevel, err = parseLevel(os.Getenv("LOG_LEVEL")); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

func parseLevel(v string) (slog.Level, error) {
	if v == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(v))); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return level, nil
}
