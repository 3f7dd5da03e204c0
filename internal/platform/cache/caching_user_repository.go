package cache

import (
	"context"
	"errors"
	"log/slog"

	"identity_backend/internal/feature/users/domain/entity"
	"identity_backend/internal/feature/users/usecase"
)

// CachingUserRepository decorates a UserRepository with a cache-aside read path.
// Entries are only ever written from fresh store reads, so the store stays the
// single source of truth. Absence is never cached.
type CachingUserRepository struct {
	inner usecase.UserRepository
	cache UserCache
}

var _ usecase.CachedUserRepository = (*CachingUserRepository)(nil)

// NewCachingUserRepository wraps inner with cache. A nil cache disables caching.
func NewCachingUserRepository(inner usecase.UserRepository, cache UserCache) *CachingUserRepository {
	return &CachingUserRepository{inner: inner, cache: cache}
}

// GetByID returns the user with the given id, checking the cache first.
// If the cache is unreachable the store is read directly and nothing is cached.
func (c *CachingUserRepository) GetByID(ctx context.Context, id uint) (*entity.User, error) {
	// Bypass cache if it is not configured
	if c.cache == nil {
		return c.inner.FindByFields(ctx, usecase.UserFilter{ID: id})
	}

	// 1) Check cache
	populate := false
	u, err := c.cache.Get(ctx, id)
	switch {
	case err == nil:
		return u, nil
	case errors.Is(err, ErrCacheMiss):
		populate = true
	default:
		slog.Warn("user cache unavailable, reading from store", "user_id", id, "error", err)
	}

	// 2) Fallback to store
	u, err = c.inner.FindByFields(ctx, usecase.UserFilter{ID: id})
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	if populate {
		c.warm(ctx, u)
	}
	return u, nil
}

// FindByFields always reads the store and warms the id-keyed entry on success.
func (c *CachingUserRepository) FindByFields(ctx context.Context, filter usecase.UserFilter) (*entity.User, error) {
	u, err := c.inner.FindByFields(ctx, filter)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.warm(ctx, u)
	}
	return u, nil
}

// FindConflict always reads the store. Uniqueness is never answered from the cache.
func (c *CachingUserRepository) FindConflict(ctx context.Context, email, username string) (string, error) {
	return c.inner.FindConflict(ctx, email, username)
}

// Insert passes through to the store. New ids have no cache entry to invalidate.
func (c *CachingUserRepository) Insert(ctx context.Context, u *entity.User) (*entity.User, error) {
	return c.inner.Insert(ctx, u)
}

func (c *CachingUserRepository) warm(ctx context.Context, u *entity.User) {
	if err := c.cache.Set(ctx, u); err != nil {
		slog.Warn("failed to cache user", "user_id", u.ID, "error", err)
	}
}
