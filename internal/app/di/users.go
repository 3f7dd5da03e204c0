// Package di provides dependency injection factories for creating application components.
package di

import (
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"identity_backend/internal/feature/users/adapters"
	"identity_backend/internal/feature/users/transport/handler"
	"identity_backend/internal/feature/users/usecase"
	"identity_backend/internal/platform/cache"
)

// NewUserRepository creates the user store used by the identity usecase.
// If Redis is available, lookups by id go through the Redis cache.
// Otherwise, every read goes straight to the database.
func NewUserRepository(db *gorm.DB, rdb *redis.Client, ttl time.Duration) usecase.CachedUserRepository {
	store := adapters.NewUserGorm(db)
	if rdb == nil {
		return cache.NewCachingUserRepository(store, nil)
	}
	return cache.NewCachingUserRepository(store, cache.NewRedisUserCache(rdb, ttl))
}

// NewUserHandler wires the users feature from repository to HTTP handler.
func NewUserHandler(users usecase.CachedUserRepository, hasher usecase.PasswordHasher, tokens usecase.TokenIssuer) *handler.UserHandler {
	return handler.NewUserHandler(usecase.NewIdentityUsecase(users, hasher, tokens))
}
