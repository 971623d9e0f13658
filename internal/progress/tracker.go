// Package progress records post completions and issues a certificate once
// every post of a category has been completed.
package progress

import (
	"context"
	"errors"
	"fmt"

	"github.com/zedemy/zedemy/backend/go-services/internal/apperr"
	"github.com/zedemy/zedemy/backend/go-services/internal/models"
	"github.com/zedemy/zedemy/backend/go-services/internal/posts"
	"github.com/zedemy/zedemy/backend/go-services/internal/users"
	"github.com/zedemy/zedemy/backend/go-services/pkg/logger"
	"github.com/zedemy/zedemy/backend/go-services/pkg/metrics"
)

// Issuer returns the (user, category) certificate, creating it if needed.
type Issuer interface {
	Issue(ctx context.Context, user *models.User, category string) (*models.Certificate, bool, error)
}

// ErrUnknownUser marks a completion for an account that no longer exists.
// It wraps apperr.ErrNotFound.
var ErrUnknownUser = fmt.Errorf("unknown user: %w", apperr.ErrNotFound)

func userErr(userID string, err error) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("user %s: %w", userID, ErrUnknownUser)
	}
	return err
}

type Tracker struct {
	users  *users.Service
	posts  *posts.Service
	issuer Issuer
}

func NewTracker(u *users.Service, p *posts.Service, issuer Issuer) *Tracker {
	return &Tracker{users: u, posts: p, issuer: issuer}
}

// Result describes one completion. Certificate is set only when the
// completion finished the category.
type Result struct {
	Post        *models.Post
	Certificate *models.Certificate
}

// MarkCompleted appends postID to the user's completed posts. The post must
// exist; a repeat completion fails with apperr.ErrConflict and changes nothing.
func (t *Tracker) MarkCompleted(ctx context.Context, userID, postID string) (*models.Post, error) {
	post, err := t.posts.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := t.users.MarkPostCompleted(ctx, userID, postID); err != nil {
		return post, userErr(userID, err)
	}
	metrics.PostsCompleted.Inc()
	return post, nil
}

// IsCategoryComplete reports whether the user has completed every post of
// category. A category without posts is never complete.
func (t *Tracker) IsCategoryComplete(ctx context.Context, userID, category string) (bool, error) {
	u, err := t.users.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return t.categoryComplete(ctx, u, category)
}

var errIncomplete = errors.New("category incomplete")

func (t *Tracker) categoryComplete(ctx context.Context, u *models.User, category string) (bool, error) {
	done := make(map[string]struct{}, len(u.CompletedPosts))
	for _, id := range u.CompletedPosts {
		done[id] = struct{}{}
	}
	seen := 0
	err := t.posts.EachInCategory(ctx, category, func(p *models.Post) error {
		seen++
		if _, ok := done[p.ID]; !ok {
			return errIncomplete
		}
		return nil
	})
	if errors.Is(err, errIncomplete) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return seen > 0, nil
}

// Complete marks the post completed and, when that finishes its category,
// issues the certificate.
//
// A repeat completion still returns apperr.ErrConflict, but first makes sure
// a finished category has its certificate, so an issuance that failed on the
// original request is recovered by retrying.
func (t *Tracker) Complete(ctx context.Context, userID, postID string) (*Result, error) {
	post, err := t.MarkCompleted(ctx, userID, postID)
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) && post != nil {
			t.reconcile(ctx, userID, post.Category)
		}
		return nil, err
	}

	u, err := t.users.Get(ctx, userID)
	if err != nil {
		return nil, userErr(userID, err)
	}
	complete, err := t.categoryComplete(ctx, u, post.Category)
	if err != nil {
		return nil, err
	}
	res := &Result{Post: post}
	if !complete {
		return res, nil
	}
	cert, _, err := t.issuer.Issue(ctx, u, post.Category)
	if err != nil {
		logger.Errorf("certificate issue for user %s category %q failed: %v", userID, post.Category, err)
		return nil, err
	}
	res.Certificate = cert
	return res, nil
}

func (t *Tracker) reconcile(ctx context.Context, userID, category string) {
	u, err := t.users.Get(ctx, userID)
	if err != nil {
		return
	}
	complete, err := t.categoryComplete(ctx, u, category)
	if err != nil || !complete {
		return
	}
	if _, created, err := t.issuer.Issue(ctx, u, category); err != nil {
		logger.Warnf("certificate reconcile for user %s category %q failed: %v", userID, category, err)
	} else if created {
		logger.Infof("recovered missing certificate for user %s category %q", userID, category)
	}
}
