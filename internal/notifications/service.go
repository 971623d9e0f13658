// Package notifications fans new posts out to category followers as in-app
// notifications and emails.
package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zedemy/zedemy/backend/go-services/internal/models"
	"github.com/zedemy/zedemy/backend/go-services/pkg/logger"
)

const listLimit = 50

// Followers resolves the users following a category.
type Followers interface {
	FollowersOf(ctx context.Context, category string) ([]*models.User, error)
}

type Mailer interface {
	SendNewPostEmail(ctx context.Context, user *models.User, post *models.Post)
}

type Service struct {
	repo      Repository
	followers Followers
	mail      Mailer
	now       func() time.Time
}

func NewService(repo Repository, followers Followers, mail Mailer) *Service {
	return &Service{repo: repo, followers: followers, mail: mail, now: func() time.Time { return time.Now().UTC() }}
}

// NotifyNewPost notifies every follower of the post's category except its
// author and returns how many were notified.
func (s *Service) NotifyNewPost(ctx context.Context, post *models.Post) (int, error) {
	users, err := s.followers.FollowersOf(ctx, post.Category)
	if err != nil {
		return 0, err
	}
	now := s.now()
	ns := make([]*models.Notification, 0, len(users))
	recipients := make([]*models.User, 0, len(users))
	for _, u := range users {
		if u.ID == post.AuthorID {
			continue
		}
		ns = append(ns, &models.Notification{
			ID:        uuid.NewString(),
			UserID:    u.ID,
			Message:   fmt.Sprintf("New post in %s: %s", post.Category, post.Title),
			Link:      "/post/" + post.Slug,
			CreatedAt: now,
		})
		recipients = append(recipients, u)
	}
	if err := s.repo.CreateMany(ctx, ns); err != nil {
		return 0, err
	}
	for _, u := range recipients {
		s.mail.SendNewPostEmail(ctx, u, post)
	}
	if len(ns) > 0 {
		logger.Infof("notified %d follower(s) of %q about post %s", len(ns), post.Category, post.ID)
	}
	return len(ns), nil
}

func (s *Service) List(ctx context.Context, userID string) ([]*models.Notification, error) {
	return s.repo.ListByUser(ctx, userID, listLimit)
}

// MarkRead sets the read flag; marking an already read notification is a no-op.
func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	return s.repo.MarkRead(ctx, userID, id)
}
