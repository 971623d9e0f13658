package posts

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/zedemy/zedemy/backend/go-services/internal/apperr"
	"github.com/zedemy/zedemy/backend/go-services/internal/models"
)

// MemoryRepo is an in-memory Repository for tests and local runs.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*models.Post
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*models.Post)}
}

func (m *MemoryRepo) Create(ctx context.Context, p *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[p.ID]; ok {
		return fmt.Errorf("post %s: %w", p.ID, apperr.ErrConflict)
	}
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *MemoryRepo) GetByID(ctx context.Context, id string) (*models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, fmt.Errorf("post %s: %w", id, apperr.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

// filter returns matching posts sorted by less.
func (m *MemoryRepo) filter(match func(*models.Post) bool, less func(a, b *models.Post) bool) []*models.Post {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*models.Post{}
	for _, p := range m.store {
		if match(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func byDateDesc(a, b *models.Post) bool { return a.Date.After(b.Date) }
func byID(a, b *models.Post) bool       { return a.ID < b.ID }

func (m *MemoryRepo) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	found := m.filter(func(p *models.Post) bool { return p.Slug == slug }, func(a, b *models.Post) bool { return a.Date.Before(b.Date) })
	if len(found) == 0 {
		return nil, fmt.Errorf("post %s: %w", slug, apperr.ErrNotFound)
	}
	return found[0], nil
}

func (m *MemoryRepo) List(ctx context.Context) ([]*models.Post, error) {
	return m.filter(func(*models.Post) bool { return true }, byDateDesc), nil
}

func (m *MemoryRepo) ListByIDs(ctx context.Context, ids []string) ([]*models.Post, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	return m.filter(func(p *models.Post) bool { return want[p.ID] }, byID), nil
}

func (m *MemoryRepo) PageByCategory(ctx context.Context, category, after string, limit int) ([]*models.Post, string, error) {
	all := m.filter(func(p *models.Post) bool { return p.Category == category && p.ID > after }, byID)
	if limit <= 0 || len(all) <= limit {
		return all, "", nil
	}
	page := all[:limit]
	return page, page[len(page)-1].ID, nil
}

func (m *MemoryRepo) Search(ctx context.Context, query string) ([]*models.Post, error) {
	q := strings.ToLower(query)
	return m.filter(func(p *models.Post) bool {
		return strings.Contains(strings.ToLower(p.Title), q) ||
			strings.Contains(strings.ToLower(p.Content), q) ||
			strings.Contains(strings.ToLower(p.Category), q) ||
			strings.Contains(strings.ToLower(p.Summary), q)
	}, byDateDesc), nil
}
