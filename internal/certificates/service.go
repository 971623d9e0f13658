// Package certificates renders, stores and looks up category completion certificates.
package certificates

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zedemy/zedemy/backend/go-services/internal/apperr"
	"github.com/zedemy/zedemy/backend/go-services/internal/models"
	"github.com/zedemy/zedemy/backend/go-services/internal/slug"
	"github.com/zedemy/zedemy/backend/go-services/internal/storage"
	"github.com/zedemy/zedemy/backend/go-services/pkg/logger"
	"github.com/zedemy/zedemy/backend/go-services/pkg/metrics"
)

// Renderer produces certificate documents.
type Renderer interface {
	Generate(ctx context.Context, name, category string) (*Document, error)
}

// Mailer queues the certificate email; it must not block on delivery.
type Mailer interface {
	SendCertificateEmail(ctx context.Context, user *models.User, category, fileURL string)
}

type Service struct {
	repo       Repository
	renderer   Renderer
	store      storage.ObjectStore
	mail       Mailer
	presignTTL time.Duration
	now        func() time.Time
}

func NewService(repo Repository, renderer Renderer, store storage.ObjectStore, mail Mailer, presignTTL time.Duration) *Service {
	if presignTTL <= 0 {
		presignTTL = time.Hour
	}
	return &Service{
		repo:       repo,
		renderer:   renderer,
		store:      store,
		mail:       mail,
		presignTTL: presignTTL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ObjectKey is certificates/<name>_<category>_<YYYY-MM-DD>_<uniqueId>.pdf.
func ObjectKey(name, category string, issued time.Time, uniqueID string) string {
	return fmt.Sprintf("certificates/%s_%s_%s_%s.pdf",
		slug.Fallback(name, "learner"), slug.Fallback(category, "category"),
		issued.Format("2006-01-02"), uniqueID)
}

// Issue returns the user's certificate for category, creating it when none
// exists. created is false when an existing certificate was returned,
// including when a concurrent request won the insert.
func (s *Service) Issue(ctx context.Context, user *models.User, category string) (cert *models.Certificate, created bool, err error) {
	existing, err := s.repo.GetByUserCategory(ctx, user.ID, category)
	if err == nil {
		metrics.CertificatesIssued.WithLabelValues("existing").Inc()
		return existing, false, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, false, err
	}

	doc, err := s.renderer.Generate(ctx, user.Name, category)
	if err != nil {
		return nil, false, err
	}
	key := ObjectKey(user.Name, category, doc.IssuedAt, doc.UniqueID)
	if err := s.store.Put(ctx, key, bytes.NewReader(doc.Bytes), int64(len(doc.Bytes)), "application/pdf"); err != nil {
		return nil, false, err
	}

	cert = &models.Certificate{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Category:  category,
		UniqueID:  doc.UniqueID,
		FilePath:  s.store.PublicURL(key),
		ObjectKey: key,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, cert); err != nil {
		if !errors.Is(err, apperr.ErrConflict) {
			s.discard(key)
			return nil, false, err
		}
		// lost the race; keep the winner's certificate
		s.discard(key)
		winner, werr := s.repo.GetByUserCategory(ctx, user.ID, category)
		if werr != nil {
			return nil, false, werr
		}
		metrics.CertificatesIssued.WithLabelValues("existing").Inc()
		return winner, false, nil
	}

	metrics.CertificatesIssued.WithLabelValues("created").Inc()
	logger.Infof("certificate %s issued to user %s for %q", cert.UniqueID, user.ID, category)
	s.mail.SendCertificateEmail(ctx, user, category, cert.FilePath)
	return cert, true, nil
}

// discard removes an uploaded object that never got a record. It runs on a
// fresh context so a cancelled request still cleans up.
func (s *Service) discard(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.store.Delete(ctx, key); err != nil {
		logger.Warnf("failed to delete orphaned certificate object %s: %v", key, err)
	}
}

func (s *Service) GetByUniqueID(ctx context.Context, uniqueID string) (*models.Certificate, error) {
	return s.repo.GetByUniqueID(ctx, uniqueID)
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.Certificate, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListForUser(ctx context.Context, userID string) ([]*models.Certificate, error) {
	return s.repo.ListByUser(ctx, userID)
}

// DownloadURL returns a time-limited URL for the certificate's PDF.
func (s *Service) DownloadURL(ctx context.Context, uniqueID string) (string, time.Duration, error) {
	cert, err := s.repo.GetByUniqueID(ctx, uniqueID)
	if err != nil {
		return "", 0, err
	}
	if cert.ObjectKey == "" {
		return "", 0, fmt.Errorf("certificate %s has no stored object: %w", uniqueID, apperr.ErrNotFound)
	}
	u, err := s.store.PresignedURL(ctx, cert.ObjectKey, s.presignTTL)
	if err != nil {
		return "", 0, err
	}
	return u, s.presignTTL, nil
}
