package notifications

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zedemy/zedemy/backend/go-services/internal/apperr"
	"github.com/zedemy/zedemy/backend/go-services/internal/models"
)

type staticFollowers []*models.User

func (f staticFollowers) FollowersOf(ctx context.Context, category string) ([]*models.User, error) {
	out := []*models.User{}
	for _, u := range f {
		if u.Follows(category) {
			out = append(out, u)
		}
	}
	return out, nil
}

type recordingMailer struct {
	mu sync.Mutex
	to []string
}

func (r *recordingMailer) SendNewPostEmail(ctx context.Context, u *models.User, p *models.Post) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.to = append(r.to, u.Email)
}

func TestNotifyNewPost(t *testing.T) {
	followers := staticFollowers{
		{ID: "author", Email: "author@x.io", FollowedCategories: []string{"HTML"}},
		{ID: "a", Email: "a@x.io", FollowedCategories: []string{"HTML", "CSS"}},
		{ID: "b", Email: "b@x.io", FollowedCategories: []string{"CSS"}},
	}
	repo := NewMemoryRepo()
	mail := &recordingMailer{}
	svc := NewService(repo, followers, mail)
	ctx := context.Background()

	n, err := svc.NotifyNewPost(ctx, &models.Post{ID: "p1", Title: "Forms", Category: "HTML", Slug: "forms", AuthorID: "author"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"a@x.io"}, mail.to)

	list, err := svc.List(ctx, "a")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "New post in HTML: Forms", list[0].Message)
	assert.Equal(t, "/post/forms", list[0].Link)
	assert.False(t, list[0].IsRead)

	empty, err := svc.List(ctx, "author")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMarkReadIsOneWayAndOwned(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, staticFollowers{}, &recordingMailer{})
	ctx := context.Background()
	require.NoError(t, repo.CreateMany(ctx, []*models.Notification{
		{ID: "n1", UserID: "a", Message: "old", CreatedAt: time.Unix(100, 0)},
		{ID: "n2", UserID: "a", Message: "new", CreatedAt: time.Unix(200, 0)},
	}))

	require.ErrorIs(t, svc.MarkRead(ctx, "b", "n1"), apperr.ErrNotFound)
	require.NoError(t, svc.MarkRead(ctx, "a", "n1"))
	require.NoError(t, svc.MarkRead(ctx, "a", "n1"))

	list, err := svc.List(ctx, "a")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "n2", list[0].ID)
	assert.False(t, list[0].IsRead)
	assert.True(t, list[1].IsRead)
}
