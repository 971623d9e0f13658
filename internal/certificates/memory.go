package certificates

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/zedemy/zedemy/backend/go-services/internal/apperr"
	"github.com/zedemy/zedemy/backend/go-services/internal/models"
)

// MemoryRepo is an in-process Repository with the same uniqueness rules as Mongo.
type MemoryRepo struct {
	mu    sync.RWMutex
	items map[string]*models.Certificate
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{items: map[string]*models.Certificate{}}
}

func (m *MemoryRepo) Create(ctx context.Context, c *models.Certificate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if it.ID == c.ID || it.UniqueID == c.UniqueID || (it.UserID == c.UserID && it.Category == c.Category) {
			return fmt.Errorf("certificate %s/%s: %w", c.UserID, c.Category, apperr.ErrConflict)
		}
	}
	cp := *c
	m.items[c.ID] = &cp
	return nil
}

func (m *MemoryRepo) first(match func(*models.Certificate) bool) (*models.Certificate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, it := range m.items {
		if match(it) {
			cp := *it
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("certificate: %w", apperr.ErrNotFound)
}

func (m *MemoryRepo) GetByID(ctx context.Context, id string) (*models.Certificate, error) {
	return m.first(func(c *models.Certificate) bool { return c.ID == id })
}

func (m *MemoryRepo) GetByUniqueID(ctx context.Context, uniqueID string) (*models.Certificate, error) {
	return m.first(func(c *models.Certificate) bool { return c.UniqueID == uniqueID })
}

func (m *MemoryRepo) GetByUserCategory(ctx context.Context, userID, category string) (*models.Certificate, error) {
	return m.first(func(c *models.Certificate) bool { return c.UserID == userID && c.Category == category })
}

func (m *MemoryRepo) ListByUser(ctx context.Context, userID string) ([]*models.Certificate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*models.Certificate{}
	for _, it := range m.items {
		if it.UserID == userID {
			cp := *it
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Count is used by tests to assert uniqueness under concurrency.
func (m *MemoryRepo) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
