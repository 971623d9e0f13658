package posts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zedemy/zedemy/backend/go-services/internal/apperr"
	"github.com/zedemy/zedemy/backend/go-services/internal/models"
	"github.com/zedemy/zedemy/backend/go-services/internal/slug"
)

const defaultPageSize = 100

// Service wraps post persistence with validation and category paging.
type Service struct {
	repo     Repository
	pageSize int
	now      func() time.Time
}

func NewService(r Repository, pageSize int) *Service {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Service{repo: r, pageSize: pageSize, now: func() time.Time { return time.Now().UTC() }}
}

// CreateInput carries the authored fields of a new post.
type CreateInput struct {
	Title       string              `json:"title"`
	Content     string              `json:"content"`
	Category    string              `json:"category"`
	TitleImage  string              `json:"titleImage"`
	TitleVideo  string              `json:"titleVideo"`
	Summary     string              `json:"summary"`
	Subtitles   []models.Subtitle   `json:"subtitles"`
	SuperTitles []models.SuperTitle `json:"superTitles"`
}

// Create validates in and stores a new post authored by author.
func (s *Service) Create(ctx context.Context, author *models.User, in CreateInput) (*models.Post, error) {
	title := strings.TrimSpace(in.Title)
	category := strings.TrimSpace(in.Category)
	if title == "" || category == "" || strings.TrimSpace(in.Content) == "" {
		return nil, fmt.Errorf("title, content and category are required: %w", apperr.ErrInvalid)
	}
	p := &models.Post{
		ID:          uuid.NewString(),
		Title:       title,
		Content:     in.Content,
		Category:    category,
		Slug:        slug.Fallback(title, "post"),
		Author:      author.Name,
		AuthorID:    author.ID,
		Date:        s.now(),
		TitleImage:  in.TitleImage,
		TitleVideo:  in.TitleVideo,
		Summary:     in.Summary,
		Subtitles:   in.Subtitles,
		SuperTitles: in.SuperTitles,
	}
	if p.Subtitles == nil {
		p.Subtitles = []models.Subtitle{}
	}
	if p.SuperTitles == nil {
		p.SuperTitles = []models.SuperTitle{}
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Post, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return s.repo.GetBySlug(ctx, slug)
}

func (s *Service) List(ctx context.Context) ([]*models.Post, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListByIDs(ctx context.Context, ids []string) ([]*models.Post, error) {
	return s.repo.ListByIDs(ctx, ids)
}

// Search does a case-insensitive substring match; an empty query lists everything.
func (s *Service) Search(ctx context.Context, query string) ([]*models.Post, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.repo.List(ctx)
	}
	return s.repo.Search(ctx, query)
}

// EachInCategory pages through every post of category, following
// continuation tokens until exhausted, and calls fn for each post.
func (s *Service) EachInCategory(ctx context.Context, category string, fn func(*models.Post) error) error {
	after := ""
	for {
		page, next, err := s.repo.PageByCategory(ctx, category, after, s.pageSize)
		if err != nil {
			return err
		}
		for _, p := range page {
			if err := fn(p); err != nil {
				return err
			}
		}
		if next == "" {
			return nil
		}
		after = next
	}
}

// ListByCategory collects every post of category.
func (s *Service) ListByCategory(ctx context.Context, category string) ([]*models.Post, error) {
	out := []*models.Post{}
	err := s.EachInCategory(ctx, category, func(p *models.Post) error {
		out = append(out, p)
		return nil
	})
	return out, err
}
