// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"identity_backend/internal/feature/users/domain/entity"
)

// ErrCacheMiss is returned when no usable entry exists for a key.
var ErrCacheMiss = errors.New("cache miss")

const birthDateLayout = "2006-01-02"

// UserCache is a typed key-value cache of user records keyed by id.
type UserCache interface {
	// Get returns the cached user or ErrCacheMiss. Other errors mean the cache is unreachable.
	Get(ctx context.Context, id uint) (*entity.User, error)
	// Set stores a snapshot of u.
	Set(ctx context.Context, u *entity.User) error
}

// cachedUser is the serialized form of a user entry.
type cachedUser struct {
	ID           uint      `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	FullName     *string   `json:"full_name,omitempty"`
	BirthDate    *string   `json:"birth_date,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// RedisUserCache stores users in Redis as JSON under user:{id}.
type RedisUserCache struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ UserCache = (*RedisUserCache)(nil)

// NewRedisUserCache returns a Redis-backed UserCache.
// If ttl is 0 or negative, it defaults to DefaultUserTTL.
func NewRedisUserCache(rdb *redis.Client, ttl time.Duration) *RedisUserCache {
	if ttl <= 0 {
		ttl = DefaultUserTTL
	}
	return &RedisUserCache{rdb: rdb, ttl: ttl}
}

// Get retrieves a user from Redis.
// Corrupted entries are deleted (best effort) and reported as a miss.
func (c *RedisUserCache) Get(ctx context.Context, id uint) (*entity.User, error) {
	key := UserKey(id)
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	u, err := decodeUser(b)
	if err != nil || u.ID != id {
		_ = c.rdb.Del(ctx, key).Err()
		return nil, ErrCacheMiss
	}
	return u, nil
}

// Set writes u with the configured TTL.
func (c *RedisUserCache) Set(ctx context.Context, u *entity.User) error {
	b, err := encodeUser(u)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, UserKey(u.ID), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", UserKey(u.ID), err)
	}
	return nil
}

func encodeUser(u *entity.User) ([]byte, error) {
	cu := cachedUser{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		PasswordHash: string(u.PasswordHash),
		FullName:     u.FullName,
		CreatedAt:    u.CreatedAt,
	}
	if u.BirthDate != nil {
		s := u.BirthDate.Format(birthDateLayout)
		cu.BirthDate = &s
	}
	b, err := json.Marshal(cu)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal user: %w", err)
	}
	return b, nil
}

func decodeUser(b []byte) (*entity.User, error) {
	var cu cachedUser
	if err := json.Unmarshal(b, &cu); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	u := &entity.User{
		ID:           cu.ID,
		Email:        cu.Email,
		Username:     cu.Username,
		PasswordHash: entity.PasswordHash(cu.PasswordHash),
		FullName:     cu.FullName,
		CreatedAt:    cu.CreatedAt,
	}
	if cu.BirthDate != nil {
		d, err := time.Parse(birthDateLayout, *cu.BirthDate)
		if err != nil {
			return nil, fmt.Errorf("invalid birth date %q: %w", *cu.BirthDate, err)
		}
		u.BirthDate = &d
	}
	return u, nil
}
