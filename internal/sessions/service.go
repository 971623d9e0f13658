package sessions

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/zedemy/zedemy/backend/go-services/internal/apperr"
)

type Service struct {
	repo Repository
	ttl  time.Duration
	now  func() time.Time
}

func NewService(r Repository, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Service{repo: r, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

// Create opens a session for userID and returns its refresh token.
func (s *Service) Create(ctx context.Context, userID string) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("refresh token: %w", err)
	}
	now := s.now()
	sess := &Session{
		RefreshToken: hex.EncodeToString(b),
		UserID:       userID,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.ttl),
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return "", err
	}
	return sess.RefreshToken, nil
}

// Validate returns the live session for refresh or apperr.ErrUnauthorized.
func (s *Service) Validate(ctx context.Context, refresh string) (*Session, error) {
	if refresh == "" {
		return nil, fmt.Errorf("refresh token required: %w", apperr.ErrUnauthorized)
	}
	sess, err := s.repo.GetByRefresh(ctx, refresh)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("invalid refresh token: %w", apperr.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if sess.Expired(s.now()) {
		_ = s.repo.DeleteByRefresh(ctx, refresh)
		return nil, fmt.Errorf("refresh token expired: %w", apperr.ErrUnauthorized)
	}
	return sess, nil
}

func (s *Service) Delete(ctx context.Context, refresh string) error {
	return s.repo.DeleteByRefresh(ctx, refresh)
}
