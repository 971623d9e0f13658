package users

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/zedemy/zedemy/backend/go-services/internal/apperr"
	"github.com/zedemy/zedemy/backend/go-services/internal/models"
)

const (
	minPasswordLen = 6
	resetTokenTTL  = time.Hour
)

// Service encapsulates user-related business logic
type Service struct {
	repo UserRepository
	now  func() time.Time
}

func NewService(r UserRepository) *Service {
	return &Service{repo: r, now: func() time.Time { return time.Now().UTC() }}
}

// RegisterInput is the payload of a local sign-up.
type RegisterInput struct {
	Name           string
	Email          string
	Password       string
	PolicyAccepted bool
}

// GoogleProfile is the subset of verified ID-token claims used to link accounts.
type GoogleProfile struct {
	Sub   string
	Email string
	Name  string
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// Register creates a local account with a bcrypt password hash.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("name is required: %w", apperr.ErrInvalid)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("invalid email: %w", apperr.ErrInvalid)
	}
	if len(in.Password) < minPasswordLen {
		return nil, fmt.Errorf("password must be at least %d characters: %w", minPasswordLen, apperr.ErrInvalid)
	}
	if !in.PolicyAccepted {
		return nil, fmt.Errorf("privacy policy must be accepted: %w", apperr.ErrInvalid)
	}
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("user already exists: %w", apperr.ErrConflict)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{
		ID:             uuid.NewString(),
		Name:           name,
		Email:          email,
		PasswordHash:   string(hash),
		Role:           models.RoleUser,
		PolicyAccepted: true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate checks email/password. Unknown emails, wrong passwords and
// Google-only accounts all yield apperr.ErrUnauthorized.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthorized)
		}
		return nil, err
	}
	if u.PasswordHash == "" {
		return nil, fmt.Errorf("account uses Google sign-in: %w", apperr.ErrUnauthorized)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthorized)
	}
	return u, nil
}

// UpsertGoogle finds the account for a verified Google identity, linking an
// existing local account with the same email or creating a new one.
// created reports whether a new account was made.
func (s *Service) UpsertGoogle(ctx context.Context, p GoogleProfile) (u *models.User, created bool, err error) {
	if p.Sub == "" || p.Email == "" {
		return nil, false, fmt.Errorf("google profile missing sub/email: %w", apperr.ErrUnauthorized)
	}
	if u, err = s.repo.GetByGoogleID(ctx, p.Sub); err == nil {
		return u, false, nil
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, false, err
	}
	email := normalizeEmail(p.Email)
	if u, err = s.repo.GetByEmail(ctx, email); err == nil {
		if err := s.repo.LinkGoogleID(ctx, u.ID, p.Sub); err != nil {
			return nil, false, err
		}
		u.GoogleID = p.Sub
		return u, false, nil
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, false, err
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	u = &models.User{
		ID:             uuid.NewString(),
		Name:           name,
		Email:          email,
		GoogleID:       p.Sub,
		Role:           models.RoleUser,
		PolicyAccepted: true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, false, err
	}
	return u, true, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

// MarkPostCompleted appends postID to the user's completed list.
// apperr.ErrConflict means it was already there and nothing changed.
func (s *Service) MarkPostCompleted(ctx context.Context, userID, postID string) error {
	return s.repo.AppendCompletedPost(ctx, userID, postID)
}

// Follow adds categories to the followed set.
func (s *Service) Follow(ctx context.Context, userID string, categories []string) (*models.User, error) {
	clean := make([]string, 0, len(categories))
	for _, c := range categories {
		if c = strings.TrimSpace(c); c != "" {
			clean = append(clean, c)
		}
	}
	if len(clean) == 0 {
		return nil, fmt.Errorf("at least one category is required: %w", apperr.ErrInvalid)
	}
	return s.repo.FollowCategories(ctx, userID, clean, s.now())
}

func (s *Service) Unfollow(ctx context.Context, userID, category string) (*models.User, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, fmt.Errorf("category is required: %w", apperr.ErrInvalid)
	}
	return s.repo.UnfollowCategory(ctx, userID, category)
}

// FollowersOf lists users following category.
func (s *Service) FollowersOf(ctx context.Context, category string) ([]*models.User, error) {
	return s.repo.ListByFollowedCategory(ctx, category)
}

func hashToken(tok string) string {
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:])
}

// StartPasswordReset stores the hash of a fresh reset token and returns the
// raw token for delivery by email.
func (s *Service) StartPasswordReset(ctx context.Context, email string) (string, *models.User, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", nil, err
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", nil, err
	}
	tok := hex.EncodeToString(b)
	if err := s.repo.SetPasswordReset(ctx, u.ID, hashToken(tok), s.now().Add(resetTokenTTL)); err != nil {
		return "", nil, err
	}
	return tok, u, nil
}

// ResetPassword swaps the password for the account owning an unexpired token.
func (s *Service) ResetPassword(ctx context.Context, token, password string) (*models.User, error) {
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("password must be at least %d characters: %w", minPasswordLen, apperr.ErrInvalid)
	}
	u, err := s.repo.GetByResetToken(ctx, hashToken(token), s.now())
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("password reset token is invalid or has expired: %w", apperr.ErrInvalid)
		}
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, u.ID, string(hash)); err != nil {
		return nil, err
	}
	return u, nil
}
