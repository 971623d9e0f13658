package sessions

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/zedemy/zedemy/backend/go-services/internal/apperr"
)

func TestRedisRepository_CreateGetDelete(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	repo := NewRedisRepository(redis.NewClient(&redis.Options{Addr: m.Addr()}), "test:session:")
	ctx := context.Background()
	s := &Session{
		RefreshToken: "r1",
		UserID:       "user-1",
		CreatedAt:    time.Now().UTC(),
		ExpiresAt:    time.Now().UTC().Add(5 * time.Second),
	}
	require.NoError(t, repo.Create(ctx, s))
	require.True(t, m.Exists("test:session:r1"))

	got, err := repo.GetByRefresh(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, "user-1", got.UserID)

	require.NoError(t, repo.DeleteByRefresh(ctx, "r1"))
	_, err = repo.GetByRefresh(ctx, "r1")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRedisRepository_TTLExpiry(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	repo := NewRedisRepository(redis.NewClient(&redis.Options{Addr: m.Addr()}), "")
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &Session{RefreshToken: "r2", UserID: "user-2", ExpiresAt: time.Now().UTC().Add(time.Second)}))

	_, err = repo.GetByRefresh(ctx, "r2")
	require.NoError(t, err)

	m.FastForward(2 * time.Second)
	_, err = repo.GetByRefresh(ctx, "r2")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestBlacklist(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	bl := NewBlacklist(redis.NewClient(&redis.Options{Addr: m.Addr()}))
	ctx := context.Background()
	require.NoError(t, bl.Revoke(ctx, "access-1", 2*time.Second))

	ok, err := bl.IsRevoked(ctx, "access-1")
	require.NoError(t, err)
	require.True(t, ok)

	m.FastForward(3 * time.Second)
	ok, err = bl.IsRevoked(ctx, "access-1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, bl.Revoke(ctx, "already-expired", 0))
	require.False(t, m.Exists("zedemy:blacklist:access:already-expired"))
}

func TestBlacklist_NoClient_Noop(t *testing.T) {
	var nilList *Blacklist
	for _, bl := range []*Blacklist{NewBlacklist(nil), nilList} {
		require.NoError(t, bl.Revoke(context.Background(), "t", time.Second))
		ok, err := bl.IsRevoked(context.Background(), "t")
		require.NoError(t, err)
		require.False(t, ok)
	}
}
