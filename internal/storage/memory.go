package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/zedemy/zedemy/backend/go-services/internal/apperr"
)

// MemoryStore keeps objects in a map. Used in tests and when no bucket is configured.
type MemoryStore struct {
	mu      sync.Mutex
	base    string
	objects map[string]Object
	// FailPut makes every Put fail, for exercising upload error paths.
	FailPut error
}

type Object struct {
	Data        []byte
	ContentType string
}

func NewMemoryStore(base string) *MemoryStore {
	if base == "" {
		base = "memory://objects"
	}
	return &MemoryStore{base: base, objects: map[string]Object{}}
}

func (m *MemoryStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if m.FailPut != nil {
		return apperr.Upstream("memory put "+key, m.FailPut)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return apperr.Upstream("memory put "+key, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = Object{Data: buf.Bytes(), ContentType: contentType}
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *MemoryStore) PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	m.mu.Lock()
	_, ok := m.objects[key]
	m.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("object %s: %w", key, apperr.ErrNotFound)
	}
	return fmt.Sprintf("%s?expires=%d", joinURL(m.base, key), int(expires.Seconds())), nil
}

func (m *MemoryStore) PublicURL(key string) string { return joinURL(m.base, key) }

// Get returns a stored object.
func (m *MemoryStore) Get(key string) (Object, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.objects[key]
	return o, ok
}

// Keys lists stored keys in no particular order.
func (m *MemoryStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.objects))
	for k := range m.objects {
		out = append(out, k)
	}
	return out
}
