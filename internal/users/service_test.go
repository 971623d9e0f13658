package users

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zedemy/zedemy/backend/go-services/internal/apperr"
)

func newTestService() (*Service, *MemoryRepo) {
	repo := NewMemoryRepo()
	return NewService(repo), repo
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: " Ada@Example.com ", Password: "secret1", PolicyAccepted: true})
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	require.Equal(t, "ada@example.com", u.Email)
	require.Equal(t, "user", u.Role)
	require.NotEqual(t, "secret1", u.PasswordHash)

	got, err := svc.Authenticate(ctx, "ADA@example.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(ctx, "ada@example.com", "wrong")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = svc.Authenticate(ctx, "nobody@example.com", "secret1")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = svc.Register(ctx, RegisterInput{Name: "Ada 2", Email: "ada@example.com", Password: "secret2", PolicyAccepted: true})
	require.ErrorIs(t, err, apperr.ErrConflict)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	cases := []RegisterInput{
		{Name: "", Email: "a@b.c", Password: "secret1", PolicyAccepted: true},
		{Name: "A", Email: "not-an-email", Password: "secret1", PolicyAccepted: true},
		{Name: "A", Email: "a@b.c", Password: "123", PolicyAccepted: true},
		{Name: "A", Email: "a@b.c", Password: "secret1", PolicyAccepted: false},
	}
	for _, in := range cases {
		_, err := svc.Register(ctx, in)
		require.ErrorIs(t, err, apperr.ErrInvalid, "input %+v", in)
	}
}

func TestUpsertGoogle(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	u, created, err := svc.UpsertGoogle(ctx, GoogleProfile{Sub: "g-1", Email: "grace@example.com", Name: "Grace"})
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, "g-1", u.GoogleID)
	require.Empty(t, u.PasswordHash)

	again, created, err := svc.UpsertGoogle(ctx, GoogleProfile{Sub: "g-1", Email: "grace@example.com"})
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, u.ID, again.ID)

	// Google-only accounts cannot log in with a password
	_, err = svc.Authenticate(ctx, "grace@example.com", "anything")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	// an existing local account is linked rather than duplicated
	local, err := svc.Register(ctx, RegisterInput{Name: "Linus", Email: "linus@example.com", Password: "secret1", PolicyAccepted: true})
	require.NoError(t, err)
	linked, created, err := svc.UpsertGoogle(ctx, GoogleProfile{Sub: "g-2", Email: "LINUS@example.com"})
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, local.ID, linked.ID)
	require.Equal(t, "g-2", linked.GoogleID)

	_, _, err = svc.UpsertGoogle(ctx, GoogleProfile{Email: "x@example.com"})
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestMarkPostCompleted_SecondCallConflicts(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	u, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "secret1", PolicyAccepted: true})
	require.NoError(t, err)

	require.NoError(t, svc.MarkPostCompleted(ctx, u.ID, "p1"))
	err = svc.MarkPostCompleted(ctx, u.ID, "p1")
	require.ErrorIs(t, err, apperr.ErrConflict)

	got, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"p1"}, got.CompletedPosts)

	require.ErrorIs(t, svc.MarkPostCompleted(ctx, "missing", "p1"), apperr.ErrNotFound)
}

func TestMarkPostCompleted_ConcurrentAppendsOnce(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	u, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "secret1", PolicyAccepted: true})
	require.NoError(t, err)

	const n = 16
	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- svc.MarkPostCompleted(ctx, u.ID, "p1")
		}()
	}
	wg.Wait()
	close(results)

	ok := 0
	for err := range results {
		if err == nil {
			ok++
			continue
		}
		require.ErrorIs(t, err, apperr.ErrConflict)
	}
	require.Equal(t, 1, ok)
	got, _ := svc.Get(ctx, u.ID)
	require.Len(t, got.CompletedPosts, 1)
}

func TestFollowUnfollow(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	u, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "secret1", PolicyAccepted: true})
	require.NoError(t, err)

	got, err := svc.Follow(ctx, u.ID, []string{"HTML", " CSS ", "HTML", ""})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"HTML", "CSS"}, got.FollowedCategories)
	require.NotNil(t, got.FollowedCategoriesTimestamp)

	followers, err := svc.FollowersOf(ctx, "CSS")
	require.NoError(t, err)
	require.Len(t, followers, 1)

	got, err = svc.Unfollow(ctx, u.ID, "CSS")
	require.NoError(t, err)
	require.Equal(t, []string{"HTML"}, got.FollowedCategories)

	_, err = svc.Follow(ctx, u.ID, []string{" "})
	require.ErrorIs(t, err, apperr.ErrInvalid)
}

func TestPasswordReset(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "secret1", PolicyAccepted: true})
	require.NoError(t, err)

	tok, u, err := svc.StartPasswordReset(ctx, "ada@example.com")
	require.NoError(t, err)
	require.Len(t, tok, 64)
	require.Equal(t, "ada@example.com", u.Email)

	_, err = svc.ResetPassword(ctx, "bogus", "newsecret")
	require.ErrorIs(t, err, apperr.ErrInvalid)

	_, err = svc.ResetPassword(ctx, tok, "newsecret")
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, "ada@example.com", "newsecret")
	require.NoError(t, err)

	// tokens are single use
	_, err = svc.ResetPassword(ctx, tok, "another1")
	require.ErrorIs(t, err, apperr.ErrInvalid)

	_, _, err = svc.StartPasswordReset(ctx, "missing@example.com")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPasswordReset_Expired(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "secret1", PolicyAccepted: true})
	require.NoError(t, err)

	tok, _, err := svc.StartPasswordReset(ctx, "ada@example.com")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().UTC().Add(2 * time.Hour) }
	_, err = svc.ResetPassword(ctx, tok, "newsecret")
	require.ErrorIs(t, err, apperr.ErrInvalid)
}
