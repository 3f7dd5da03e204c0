package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"identity_backend/internal/feature/users/domain/entity"
	"identity_backend/internal/feature/users/usecase"
)

// fakeStore はテスト用のUserRepository実装です。呼び出し回数を記録します。
type fakeStore struct {
	mu    sync.Mutex
	users map[uint]*entity.User
	calls atomic.Int32
	err   error
}

func newFakeStore(users ...*entity.User) *fakeStore {
	s := &fakeStore{users: map[uint]*entity.User{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeStore) FindByFields(ctx context.Context, f usecase.UserFilter) (*entity.User, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if (f.ID == 0 || u.ID == f.ID) &&
			(f.Email == "" || u.Email == f.Email) &&
			(f.Username == "" || u.Username == f.Username) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, usecase.ErrUserNotFound
}

func (s *fakeStore) FindConflict(ctx context.Context, email, username string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	field := ""
	for _, u := range s.users {
		if u.Email == email {
			return usecase.FieldEmail, nil
		}
		if u.Username == username {
			field = usecase.FieldUsername
		}
	}
	return field, nil
}

func (s *fakeStore) Insert(ctx context.Context, u *entity.User) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	cp.ID = uint(len(s.users) + 1)
	s.users[cp.ID] = &cp
	return &cp, nil
}

// fakeCache はテスト用のUserCache実装です。
type fakeCache struct {
	mu      sync.Mutex
	entries map[uint]*entity.User
	getErr  error
	setErr  error
	sets    atomic.Int32
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[uint]*entity.User{}}
}

func (c *fakeCache) Get(ctx context.Context, id uint) (*entity.User, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.entries[id]
	if !ok {
		return nil, ErrCacheMiss
	}
	cp := *u
	return &cp, nil
}

func (c *fakeCache) Set(ctx context.Context, u *entity.User) error {
	c.sets.Add(1)
	if c.setErr != nil {
		return c.setErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *u
	c.entries[u.ID] = &cp
	return nil
}

// TestCachingUserRepository_GetByID_NilCache はキャッシュ未設定時にストアを直接呼び出すことを検証します。
func TestCachingUserRepository_GetByID_NilCache(t *testing.T) {
	t.Parallel()

	store := newFakeStore(testUser())
	repo := NewCachingUserRepository(store, nil)

	u, err := repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "john", u.Username)

	_, err = repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int32(2), store.calls.Load())
}

// TestCachingUserRepository_GetByID_MissThenHit はミス時にキャッシュへ格納し、次回はストアを呼ばないことを検証します。
func TestCachingUserRepository_GetByID_MissThenHit(t *testing.T) {
	t.Parallel()

	store := newFakeStore(testUser())
	cache := newFakeCache()
	repo := NewCachingUserRepository(store, cache)

	first, err := repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int32(1), store.calls.Load())
	assert.Equal(t, int32(1), cache.sets.Load())

	second, err := repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int32(1), store.calls.Load(), "cache hit must not touch the store")
	assert.Equal(t, first.Email, second.Email)
}

// TestCachingUserRepository_GetByID_NotFound は存在しないユーザーをキャッシュしないことを検証します。
func TestCachingUserRepository_GetByID_NotFound(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	cache := newFakeCache()
	repo := NewCachingUserRepository(store, cache)

	_, err := repo.GetByID(context.Background(), 1)
	assert.ErrorIs(t, err, usecase.ErrUserNotFound)
	assert.Equal(t, int32(0), cache.sets.Load(), "absence must not be cached")

	// A user created right afterwards is visible on the next lookup.
	created, err := store.Insert(context.Background(), testUser())
	require.NoError(t, err)

	u, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)
}

// TestCachingUserRepository_GetByID_CacheUnavailable はキャッシュ障害時にストアへフォールバックし、書き込みを行わないことを検証します。
func TestCachingUserRepository_GetByID_CacheUnavailable(t *testing.T) {
	t.Parallel()

	store := newFakeStore(testUser())
	cache := newFakeCache()
	cache.getErr = errors.New("dial tcp: connection refused")
	repo := NewCachingUserRepository(store, cache)

	u, err := repo.GetByID(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, "john", u.Username)
	assert.Equal(t, int32(1), store.calls.Load())
	assert.Equal(t, int32(0), cache.sets.Load(), "population is skipped while the cache is down")
}

// TestCachingUserRepository_GetByID_StoreError はストアのエラーがそのまま伝播されることを検証します。
func TestCachingUserRepository_GetByID_StoreError(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.err = usecase.ErrUnavailable
	cache := newFakeCache()
	repo := NewCachingUserRepository(store, cache)

	_, err := repo.GetByID(context.Background(), 1)

	assert.ErrorIs(t, err, usecase.ErrUnavailable)
	assert.Equal(t, int32(0), cache.sets.Load())
}

// TestCachingUserRepository_GetByID_SetFailure はキャッシュ書き込み失敗でもリクエストが成功することを検証します。
func TestCachingUserRepository_GetByID_SetFailure(t *testing.T) {
	t.Parallel()

	store := newFakeStore(testUser())
	cache := newFakeCache()
	cache.setErr = errors.New("OOM command not allowed")
	repo := NewCachingUserRepository(store, cache)

	u, err := repo.GetByID(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, uint(1), u.ID)
}

// TestCachingUserRepository_FindByFields はユーザー名検索が常にストアを読み、IDキーのキャッシュを温めることを検証します。
func TestCachingUserRepository_FindByFields(t *testing.T) {
	t.Parallel()

	store := newFakeStore(testUser())
	cache := newFakeCache()
	repo := NewCachingUserRepository(store, cache)

	for i := 0; i < 2; i++ {
		u, err := repo.FindByFields(context.Background(), usecase.UserFilter{Username: "john"})
		require.NoError(t, err)
		assert.Equal(t, uint(1), u.ID)
	}
	assert.Equal(t, int32(2), store.calls.Load(), "non-id lookups always read the store")

	_, err := repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int32(2), store.calls.Load(), "profile lookup should hit the warmed entry")
}

func TestCachingUserRepository_FindByFields_NotFound(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	cache := newFakeCache()
	repo := NewCachingUserRepository(store, cache)

	_, err := repo.FindByFields(context.Background(), usecase.UserFilter{Username: "ghost"})

	assert.ErrorIs(t, err, usecase.ErrUserNotFound)
	assert.Equal(t, int32(0), cache.sets.Load())
}

func TestCachingUserRepository_Insert_PassThrough(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	cache := newFakeCache()
	repo := NewCachingUserRepository(store, cache)

	created, err := repo.Insert(context.Background(), testUser())

	require.NoError(t, err)
	assert.Equal(t, uint(1), created.ID)
	assert.Equal(t, int32(0), cache.sets.Load(), "inserts do not warm the cache")
}

// TestCachingUserRepository_FindConflict はユニーク確認が常にストアを参照し、キャッシュに触れないことを検証します。
func TestCachingUserRepository_FindConflict(t *testing.T) {
	t.Parallel()

	u := testUser()
	store := newFakeStore(u)
	cache := newFakeCache()
	repo := NewCachingUserRepository(store, cache)

	field, err := repo.FindConflict(context.Background(), u.Email, "someone-else")

	require.NoError(t, err)
	assert.Equal(t, usecase.FieldEmail, field)
	assert.Equal(t, int32(0), cache.sets.Load())
}

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err, "miniredis start")
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

// TestCachingUserRepository_Redis_TTL は実際のRedisプロトコル上でuser:{id}キーが10分のTTLで格納されることを検証します。
func TestCachingUserRepository_Redis_TTL(t *testing.T) {
	t.Parallel()

	mr, rdb := newMiniredis(t)
	store := newFakeStore(testUser())
	repo := NewCachingUserRepository(store, NewRedisUserCache(rdb, DefaultUserTTL))

	_, err := repo.FindByFields(context.Background(), usecase.UserFilter{Username: "john"})
	require.NoError(t, err)

	assert.True(t, mr.Exists("user:1"))
	assert.Equal(t, 10*time.Minute, mr.TTL("user:1"))

	_, err = repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int32(1), store.calls.Load())

	mr.FastForward(DefaultUserTTL)
	assert.False(t, mr.Exists("user:1"))

	_, err = repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int32(2), store.calls.Load(), "expired entries are read through again")
}

// TestCachingUserRepository_Redis_NotFoundNotCached は存在しないIDに対してキーが作成されないことを検証します。
func TestCachingUserRepository_Redis_NotFoundNotCached(t *testing.T) {
	t.Parallel()

	mr, rdb := newMiniredis(t)
	repo := NewCachingUserRepository(newFakeStore(), NewRedisUserCache(rdb, DefaultUserTTL))

	_, err := repo.GetByID(context.Background(), 5)

	assert.ErrorIs(t, err, usecase.ErrUserNotFound)
	assert.False(t, mr.Exists("user:5"))
	assert.Empty(t, mr.Keys())
}

// TestCachingUserRepository_Redis_Down はRedisがエラーを返してもストアから結果を返すことを検証します。
func TestCachingUserRepository_Redis_Down(t *testing.T) {
	t.Parallel()

	mr, rdb := newMiniredis(t)
	store := newFakeStore(testUser())
	repo := NewCachingUserRepository(store, NewRedisUserCache(rdb, DefaultUserTTL))

	mr.SetError("ERR simulated outage")
	u, err := repo.GetByID(context.Background(), 1)
	mr.SetError("")

	require.NoError(t, err)
	assert.Equal(t, "john", u.Username)
	assert.False(t, mr.Exists("user:1"))
}
