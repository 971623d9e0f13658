package users

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zedemy/zedemy/backend/go-services/internal/apperr"
	"github.com/zedemy/zedemy/backend/go-services/internal/models"
)

// MemoryRepo is an in-memory UserRepository used by tests and by local runs
// without MONGODB_URI. Returned users are copies.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*models.User
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*models.User)}
}

func clone(u *models.User) *models.User {
	c := *u
	c.CompletedPosts = append([]string{}, u.CompletedPosts...)
	c.FollowedCategories = append([]string{}, u.FollowedCategories...)
	return &c
}

func (m *MemoryRepo) Create(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	normalize(u)
	for _, existing := range m.store {
		if existing.ID == u.ID || existing.Email == u.Email || (u.GoogleID != "" && existing.GoogleID == u.GoogleID) {
			return fmt.Errorf("user %s: %w", u.Email, apperr.ErrConflict)
		}
	}
	m.store[u.ID] = clone(u)
	return nil
}

func (m *MemoryRepo) find(match func(*models.User) bool) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.store {
		if match(u) {
			return clone(u), nil
		}
	}
	return nil, fmt.Errorf("user: %w", apperr.ErrNotFound)
}

func (m *MemoryRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.store[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	return clone(u), nil
}

func (m *MemoryRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Email == email })
}

func (m *MemoryRepo) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return googleID != "" && u.GoogleID == googleID })
}

// mutate runs fn on the stored user under the write lock.
func (m *MemoryRepo) mutate(id string, fn func(*models.User) error) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	if err := fn(u); err != nil {
		return nil, err
	}
	u.UpdatedAt = time.Now().UTC()
	return clone(u), nil
}

func (m *MemoryRepo) LinkGoogleID(ctx context.Context, id, googleID string) error {
	_, err := m.mutate(id, func(u *models.User) error {
		u.GoogleID = googleID
		return nil
	})
	return err
}

func (m *MemoryRepo) AppendCompletedPost(ctx context.Context, id, postID string) error {
	_, err := m.mutate(id, func(u *models.User) error {
		if u.HasCompleted(postID) {
			return fmt.Errorf("post %s already completed: %w", postID, apperr.ErrConflict)
		}
		u.CompletedPosts = append(u.CompletedPosts, postID)
		return nil
	})
	return err
}

func (m *MemoryRepo) FollowCategories(ctx context.Context, id string, categories []string, at time.Time) (*models.User, error) {
	return m.mutate(id, func(u *models.User) error {
		for _, c := range categories {
			if !u.Follows(c) {
				u.FollowedCategories = append(u.FollowedCategories, c)
			}
		}
		ts := at
		u.FollowedCategoriesTimestamp = &ts
		return nil
	})
}

func (m *MemoryRepo) UnfollowCategory(ctx context.Context, id, category string) (*models.User, error) {
	return m.mutate(id, func(u *models.User) error {
		kept := u.FollowedCategories[:0]
		for _, c := range u.FollowedCategories {
			if c != category {
				kept = append(kept, c)
			}
		}
		u.FollowedCategories = kept
		return nil
	})
}

func (m *MemoryRepo) ListByFollowedCategory(ctx context.Context, category string) ([]*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*models.User{}
	for _, u := range m.store {
		if u.Follows(category) {
			out = append(out, clone(u))
		}
	}
	return out, nil
}

func (m *MemoryRepo) SetPasswordReset(ctx context.Context, id, tokenHash string, expires time.Time) error {
	_, err := m.mutate(id, func(u *models.User) error {
		exp := expires
		u.ResetPasswordTokenHash = tokenHash
		u.ResetPasswordExpires = &exp
		return nil
	})
	return err
}

func (m *MemoryRepo) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	return m.find(func(u *models.User) bool {
		return tokenHash != "" && u.ResetPasswordTokenHash == tokenHash &&
			u.ResetPasswordExpires != nil && u.ResetPasswordExpires.After(now)
	})
}

func (m *MemoryRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	_, err := m.mutate(id, func(u *models.User) error {
		u.PasswordHash = passwordHash
		u.ResetPasswordTokenHash = ""
		u.ResetPasswordExpires = nil
		return nil
	})
	return err
}
